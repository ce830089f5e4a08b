package testutil

import (
	"github.com/nishad/sradb/internal/models"
)

// Fixture hierarchy:
//
//	SRP000001 (GSE1000)
//	  SRX000001 / SRS000001 (GSM100001): SRR000001, SRR000002
//	  SRX000002 / SRS000002 (GSM100002): SRR000003
//	SRP000002 (submitter alias only)
//	  SRX000003 / SRS000003: SRR000004

// Records returns the fixture archive rows in experiment, run order.
func Records() []models.Record {
	liver := models.Record{
		StudyAccession:   "SRP000001",
		StudyAlias:       "GSE1000",
		StudyTitle:       "Human liver transcriptome",
		TaxonID:          9606,
		ScientificName:   "Homo sapiens",
		LibraryStrategy:  "RNA-Seq",
		LibrarySource:    "TRANSCRIPTOMIC",
		LibrarySelection: "cDNA",
		LibraryLayout:    "PAIRED",
		Platform:         "ILLUMINA",
		InstrumentModel:  "Illumina HiSeq 2500",
		Published:        "2014-05-01",
	}

	r1 := liver
	r1.ExperimentAccession, r1.ExperimentAlias, r1.ExperimentTitle = "SRX000001", "GSM100001", "GSM100001: liver control"
	r1.SampleAccession, r1.SampleAlias, r1.SampleTitle = "SRS000001", "GSM100001", "liver control"
	r1.SampleAttribute = "source_name: liver || treatment: control"
	r2 := r1
	r1.RunAccession, r1.RunAlias, r1.Spots, r1.Bases = "SRR000001", "GSM100001_r1", 1000, 200000
	r1.SRAURL = "https://sra-downloadb.be-md.ncbi.nlm.nih.gov/sos5/sra-pub-zq-11/SRR000/000001/SRR000001.lite.1"
	r1.FastqFTP = "ftp.sra.ebi.ac.uk/vol1/fastq/SRR000/SRR000001/SRR000001_1.fastq.gz"
	r2.RunAccession, r2.RunAlias, r2.Spots, r2.Bases = "SRR000002", "GSM100001_r2", 1500, 300000
	r2.SRAURL = "https://sra-downloadb.be-md.ncbi.nlm.nih.gov/sos5/sra-pub-zq-11/SRR000/000002/SRR000002.lite.1"

	r3 := liver
	r3.ExperimentAccession, r3.ExperimentAlias, r3.ExperimentTitle = "SRX000002", "GSM100002", "GSM100002: liver treated"
	r3.SampleAccession, r3.SampleAlias, r3.SampleTitle = "SRS000002", "GSM100002", "liver treated"
	r3.SampleAttribute = "source_name: liver || treatment: drug A || treatment: drug B"
	r3.RunAccession, r3.RunAlias, r3.Spots, r3.Bases = "SRR000003", "GSM100002_r1", 2000, 400000
	r3.SRAURL = "https://sra-downloadb.be-md.ncbi.nlm.nih.gov/sos5/sra-pub-zq-11/SRR000/000003/SRR000003.lite.1"

	brain := models.Record{
		StudyAccession:      "SRP000002",
		StudyAlias:          "mouse-brain-atlas",
		StudyTitle:          "Mouse brain development",
		ExperimentAccession: "SRX000003",
		ExperimentAlias:     "brain_lib1",
		ExperimentTitle:     "P7 cortex",
		SampleAccession:     "SRS000003",
		SampleAlias:         "brain1",
		SampleTitle:         "P7 cortex",
		RunAccession:        "SRR000004",
		RunAlias:            "brain1_run",
		TaxonID:             10090,
		ScientificName:      "Mus musculus",
		LibraryStrategy:     "WGS",
		LibrarySource:       "GENOMIC",
		LibrarySelection:    "RANDOM",
		LibraryLayout:       "SINGLE",
		Platform:            "ILLUMINA",
		InstrumentModel:     "Illumina NovaSeq 6000",
		Spots:               500,
		Bases:               50000,
		Published:           "2020-01-15",
		SampleAttribute:     "tissue: cortex || age: P7",
		SRAURL:              "https://sra-downloadb.be-md.ncbi.nlm.nih.gov/sos5/sra-pub-zq-11/SRR000/000004/SRR000004.lite.1",
	}

	return []models.Record{r1, r2, r3, brain}
}
