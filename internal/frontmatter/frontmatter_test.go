package frontmatter

import (
	"testing"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		input  string
		wantFM string
		wantBody string
		wantHas  bool
		wantErr  bool
	}{
		{
			name:     "basic",
			input:    "---\nid: qp-1\n---\nbody text\n",
			wantFM:   "id: qp-1\n",
			wantBody: "body text\n",
			wantHas:  true,
		},
		{
			name:     "no frontmatter",
			input:    "just a body\n",
			wantBody: "just a body\n",
			wantHas:  false,
		},
		{
			name:    "unterminated",
			input:   "---\nid: qp-1\nbody text\n",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fm, body, has, err := Split([]byte(tc.input))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if has != tc.wantHas {
				t.Fatalf("hasFrontmatter = %v, want %v", has, tc.wantHas)
			}

			if string(fm) != tc.wantFM {
				t.Fatalf("fm = %q, want %q", fm, tc.wantFM)
			}

			if string(body) != tc.wantBody {
				t.Fatalf("body = %q, want %q", body, tc.wantBody)
			}
		})
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	t.Parallel()

	type doc struct {
		ID   string   `yaml:"id"`
		Tags []string `yaml:"tags,omitempty"`
	}

	in := doc{ID: "qp-1", Tags: []string{"a", "b"}}

	data, err := Marshal(in, "body\n")
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	fm, body, has, err := Split(data)
	if err != nil || !has {
		t.Fatalf("Split: has=%v err=%v", has, err)
	}

	var out doc

	if err := Unmarshal(fm, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out.ID != in.ID || len(out.Tags) != 2 {
		t.Fatalf("round-trip mismatch: %+v", out)
	}

	if body != "body\n" {
		t.Fatalf("body = %q", body)
	}
}
