package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSourceURL_GitHubProfiles(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		kind    SourceKind
		wantErr bool
	}{
		{"profile", "https://github.com/torvalds", SourceGitHub, false},
		{"profile with www", "https://www.github.com/torvalds", SourceGitHub, false},
		{"profile trailing slash", "https://github.com/torvalds/", SourceGitHub, false},
		{"profile with hyphen and digits", "http://github.com/a-user-42", SourceGitHub, false},
		{"repository URL rejected", "https://github.com/torvalds/linux", "", true},
		{"settings path rejected", "https://github.com/settings/profile", "", true},
		{"bare host rejected", "https://github.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ValidateSourceURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				var validation *ErrValidation
				assert.ErrorAs(t, err, &validation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestValidateSourceURL_GenericURLs(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"portfolio site", "https://jane.dev", false},
		{"portfolio with path", "https://jane.dev/projects", false},
		{"plain http", "http://example.com", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"missing scheme", "jane.dev", true},
		{"ftp scheme", "ftp://example.com/file", true},
		{"garbage", "not a url at all", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ValidateSourceURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, SourceGeneric, kind)
		})
	}
}

func TestAnalysisRequest_Validate(t *testing.T) {
	t.Run("valid without resume", func(t *testing.T) {
		req := &AnalysisRequest{SourceURL: "https://github.com/octocat"}
		assert.NoError(t, req.Validate())
	})

	t.Run("resume needs a filename", func(t *testing.T) {
		req := &AnalysisRequest{
			SourceURL:  "https://github.com/octocat",
			ResumeBlob: []byte("experience with Go"),
		}
		err := req.Validate()
		require.Error(t, err)

		var validation *ErrValidation
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "resume_filename", validation.Field)
	})

	t.Run("invalid URL is rejected before anything else", func(t *testing.T) {
		req := &AnalysisRequest{SourceURL: "github.com/octocat"}
		assert.Error(t, req.Validate())
	})
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Equal(t, 0, Severity("bogus").Rank())
}

func TestSourceKindOf(t *testing.T) {
	assert.Equal(t, SourceGitHub, SourceKindOf("https://github.com/octocat"))
	assert.Equal(t, SourceGeneric, SourceKindOf("https://jane.dev"))
	assert.Equal(t, SourceGeneric, SourceKindOf("https://github.com/octocat/repo"))
}
