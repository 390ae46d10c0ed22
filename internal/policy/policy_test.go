package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name      string
		tier      string
		integrity Level
		quality   Level
		strict    Level
	}{
		{name: "integrity", tier: "integrity", integrity: LevelFail, quality: LevelOff, strict: LevelOff},
		{name: "warn", tier: "warn", integrity: LevelFail, quality: LevelWarn, strict: LevelOff},
		{name: "quality", tier: "quality", integrity: LevelFail, quality: LevelFail, strict: LevelOff},
		{name: "opt-in", tier: "opt-in", integrity: LevelFail, quality: LevelFail, strict: LevelWarn},
		{name: "strict", tier: "strict", integrity: LevelFail, quality: LevelFail, strict: LevelFail},
		{name: "hard aliases strict", tier: "hard", integrity: LevelFail, quality: LevelFail, strict: LevelFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Lookup(tt.tier)
			require.NoError(t, err)
			assert.Equal(t, tt.integrity, p.Integrity)
			assert.Equal(t, tt.quality, p.Quality)
			assert.Equal(t, tt.strict, p.Strict)
		})
	}
}

func TestLookup_UnknownTier(t *testing.T) {
	_, err := Lookup("paranoid")
	require.Error(t, err)

	var unknownErr *UnknownTierError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "paranoid", unknownErr.Name)
	// The message names the valid tiers so a typo is self-correcting.
	assert.Contains(t, err.Error(), "strict")
}

func TestIntegrityNeverBelowFail(t *testing.T) {
	for _, name := range TierNames() {
		p, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, LevelFail, p.Integrity, "tier %s", name)
	}
}

func TestResolve_Precedence(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(key string) string { return vars[key] }
	}

	tests := []struct {
		name       string
		override   string
		env        map[string]string
		configTier string
		want       string
		wantErr    bool
	}{
		{
			name:       "override beats everything",
			override:   "strict",
			env:        map[string]string{EnvVar: "warn"},
			configTier: "quality",
			want:       "strict",
		},
		{
			name:       "env beats config",
			env:        map[string]string{EnvVar: "warn"},
			configTier: "quality",
			want:       "warn",
		},
		{
			name:       "config beats default",
			configTier: "quality",
			want:       "quality",
		},
		{
			name: "default tier",
			want: DefaultTier,
		},
		{
			name:     "unknown override is an error even with a valid env",
			override: "nope",
			env:      map[string]string{EnvVar: "warn"},
			wantErr:  true,
		},
		{
			name:    "unknown env is an error",
			env:     map[string]string{EnvVar: "nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Resolve(tt.override, env(tt.env), tt.configTier)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name)
		})
	}
}
