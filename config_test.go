package multiform_test

import (
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomasbasham/multiform"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    multiform.Config
		wantErr bool
	}{
		"empty document": {
			input: "",
			want:  multiform.DefaultConfig(),
		},
		"all values": {
			input: `
boundary_pool_size: 10
mime_cache_size: 20
header_cache_size: 30
mime_types:
  foo: application/x-foo
`,
			want: multiform.Config{
				BoundaryPoolSize: 10,
				MIMECacheSize:    20,
				HeaderCacheSize:  30,
				MIMETypes:        map[string]string{"foo": "application/x-foo"},
			},
		},
		"non-positive sizes take defaults": {
			input: "boundary_pool_size: -1\nmime_cache_size: 0\n",
			want:  multiform.DefaultConfig(),
		},
		"invalid yaml": {
			input:   "boundary_pool_size: [",
			wantErr: true,
		},
		"wrong type": {
			input:   "mime_cache_size: lots",
			wantErr: true,
		},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := multiform.ParseConfig([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error: %v, got: %v", tt.wantErr, err)
			}
			if !tt.wantErr {
				if diff := cmp.Diff(got, tt.want); diff != "" {
					t.Errorf("mismatch (-got +want):\n%s", diff)
				}
			}
		})
	}
}

func TestNewServices(t *testing.T) {
	t.Parallel()

	cfg, err := multiform.ParseConfig([]byte("mime_types:\n  .dat: application/x-dat\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc := multiform.NewServices(cfg, nil)

	if got := svc.MIME.Lookup("sample.DAT"); got != "application/x-dat" {
		t.Errorf("expected configured type, got %q", got)
	}

	f := multiform.New(multiform.WithServices(svc))
	mustAppend(t, f, "file", []byte("x"), &multiform.FieldOptions{Filename: "x.dat"})
	if got := f.Parts()[0].ContentType(); got != "application/x-dat" {
		t.Errorf("expected configured type on part, got %q", got)
	}
	if got := svc.Headers.Len(); got != 1 {
		t.Errorf("expected 1 cached header, got %d", got)
	}
	if got := svc.Boundaries.Outstanding(); got != 1 {
		t.Errorf("expected 1 outstanding boundary, got %d", got)
	}
	runtime.KeepAlive(f)
}

func TestDefaultServices(t *testing.T) {
	t.Parallel()

	if multiform.DefaultServices() != multiform.DefaultServices() {
		t.Error("expected a single default instance")
	}
}
