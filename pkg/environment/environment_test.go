package environment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/recipekit/pkg/environment"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want environment.Environment
	}{
		{in: "", want: environment.Development},
		{in: "dev", want: environment.Development},
		{in: "Local", want: environment.Development},
		{in: "stage", want: environment.Staging},
		{in: " staging ", want: environment.Staging},
		{in: "PROD", want: environment.Production},
		{in: "production", want: environment.Production},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := environment.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := environment.Parse("qa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"qa"`)
}

func TestEnvironment_Predicates(t *testing.T) {
	t.Parallel()

	assert.True(t, environment.Development.IsDevelopment())
	assert.False(t, environment.Development.IsProduction())
	assert.True(t, environment.Staging.IsStaging())
	assert.True(t, environment.Production.IsProduction())
	assert.Equal(t, "production", environment.Production.String())
}
