package envstruct_test

import (
	"testing"

	"github.com/simcoach/simcoach/internal/envstruct"
	"github.com/stretchr/testify/require"
)

func TestPopulate(t *testing.T) {
	type config struct {
		Addr      string `env:"TEST_ADDR" envDefault:"localhost:4000"`
		SQLiteURL string `env:"TEST_SQLITE_URL"`
		ignored   string //nolint:unused // asserts that untagged fields are skipped.
	}

	tests := []struct {
		name    string
		env     map[string]string
		want    config
		wantErr error
	}{
		{
			name: "all set",
			env:  map[string]string{"TEST_ADDR": "localhost:0", "TEST_SQLITE_URL": ":memory:"},
			want: config{Addr: "localhost:0", SQLiteURL: ":memory:"},
		},
		{
			name: "default applies",
			env:  map[string]string{"TEST_SQLITE_URL": "./test.sqlite"},
			want: config{Addr: "localhost:4000", SQLiteURL: "./test.sqlite"},
		},
		{
			name:    "missing required",
			env:     map[string]string{},
			wantErr: envstruct.ErrEnvNotSet,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookupEnv := func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			}
			var cfg config
			err := envstruct.Populate(&cfg, lookupEnv)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg)
		})
	}
}

func TestPopulateRejectsNonStruct(t *testing.T) {
	var s string
	err := envstruct.Populate(&s, func(string) (string, bool) { return "", false })
	require.ErrorIs(t, err, envstruct.ErrInvalidValue)

	err = envstruct.Populate(struct{}{}, func(string) (string, bool) { return "", false })
	require.ErrorIs(t, err, envstruct.ErrInvalidValue)
}
