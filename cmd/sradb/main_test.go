package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/config"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/testutil"
)

func TestReadAccessionsFromReader(t *testing.T) {
	input := "SRP000001\n\n# comment\n  SRP000002 SRP000003 \n"
	got, err := readAccessionsFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"SRP000001", "SRP000002", "SRP000003"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPairCommandsRegistered(t *testing.T) {
	for _, name := range []string{"srp-to-srr", "gsm-to-srx", "srr-to-gse", "gse-to-gsm"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %s not registered", name)
			continue
		}
		for _, flag := range []string{"detailed", "desc", "expand", "saveto", "format", "batch"} {
			if cmd.Flags().Lookup(flag) == nil {
				t.Errorf("%s is missing --%s", name, flag)
			}
		}
	}
}

func TestSearchFlagsDoNotClash(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"search"})
	if err != nil {
		t.Fatal(err)
	}
	for short, long := range map[string]string{"v": "verbosity", "q": "query", "m": "max"} {
		f := cmd.Flags().ShorthandLookup(short)
		if f == nil || f.Name != long {
			t.Errorf("-%s should map to --%s", short, long)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Errorf("got %q", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestConvertKinds(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		to       string
		wantFrom accession.Kind
		wantTo   accession.Kind
		wantKind errors.Kind
	}{
		{"study to runs", []string{"SRP000001", "SRP000002"}, "srr", accession.Study, accession.Run, errors.KindUnknown},
		{"prefix as target", []string{"gsm100001"}, "SRX", accession.GSM, accession.Experiment, errors.KindUnknown},
		{"unknown target", []string{"SRP000001"}, "xyz", accession.Unknown, accession.Unknown, errors.KindIncorrectField},
		{"unknown first id", []string{"ABC1", "SRP000001"}, "srr", accession.Unknown, accession.Unknown, errors.KindIncorrectField},
		{"no ids", nil, "srr", accession.Unknown, accession.Unknown, errors.KindMissingQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := convertKinds(tt.ids, tt.to)
			if tt.wantKind != errors.KindUnknown {
				if !errors.IsKind(err, tt.wantKind) {
					t.Fatalf("expected %v error, got %v", tt.wantKind, err)
				}
				if !errors.IsUserError(err) {
					t.Errorf("%v should be reported as a user error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if from != tt.wantFrom || to != tt.wantTo {
				t.Errorf("got %s-to-%s, want %s-to-%s", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestRunConvertAgainstSnapshot(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.Database = testutil.Snapshot(t)
	out := filepath.Join(t.TempDir(), "out.tsv")

	convertTo = "srx"
	convertFlags.output.saveTo = out
	t.Cleanup(func() {
		convertTo = ""
		convertFlags.output.saveTo = ""
	})

	convertCmd.SetContext(context.Background())
	if err := runConvert(convertCmd, []string{"GSE1000"}); err != nil {
		t.Fatalf("runConvert failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	testutil.AssertEqual(t, lines[0], "study_alias\texperiment_accession", "header")
	testutil.AssertEqual(t, lines[1], "GSE1000\tSRX000001", "first row")
}
