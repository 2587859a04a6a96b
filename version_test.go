package magmawheel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRevision = "0123456789abcdef0123456789abcdef01234567"

func revisionOf(rev string, err error) RevisionFunc {
	return func() (string, error) { return rev, err }
}

func TestResolveVersion(t *testing.T) {
	testCases := []struct {
		name            string
		env             map[string]string
		revision        RevisionFunc
		expectedVersion string
		expectedSHA     string
	}{
		{
			name:            "revision suffix",
			revision:        revisionOf(testRevision+"\n", nil),
			expectedVersion: "2.9.0+0123456",
			expectedSHA:     testRevision,
		},
		{
			name:            "override wins",
			env:             map[string]string{EnvBuildVersion: "2.9.0.post1"},
			revision:        revisionOf(testRevision, nil),
			expectedVersion: "2.9.0.post1",
			expectedSHA:     testRevision,
		},
		{
			name:            "revision lookup fails",
			revision:        revisionOf("", errors.New("not a git repository")),
			expectedVersion: "2.9.0",
			expectedSHA:     UnknownRevision,
		},
		{
			name:            "no revision func",
			expectedVersion: "2.9.0",
			expectedSHA:     UnknownRevision,
		},
		{
			name:            "empty override ignored",
			env:             map[string]string{EnvBuildVersion: ""},
			revision:        revisionOf("abc", nil),
			expectedVersion: "2.9.0+abc",
			expectedSHA:     "abc",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			version, sha := ResolveVersion(NewEnvironment(tc.env), "2.9.0", tc.revision)
			require.Equal(t, tc.expectedVersion, version)
			require.Equal(t, tc.expectedSHA, sha)
		})
	}
}

func TestGitRevisionOutsideRepository(t *testing.T) {
	version, sha := ResolveVersion(NewEnvironment(nil), "2.9.0", GitRevision(t.TempDir()))
	require.Equal(t, "2.9.0", version)
	require.Equal(t, UnknownRevision, sha)
}
