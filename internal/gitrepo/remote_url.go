package gitrepo

import "strings"

const (
	pathSeparatorConstant        = "/"
	scpPathDelimiterConstant     = ":"
	gitSuffixConstant            = ".git"
	windowsPathSeparatorConstant = "\\"
)

// RepositoryNameFromURL derives the repository name from a clone URL: the final path segment
// (after the last "/", or after ":" for scp-style host:repo remotes) with one trailing ".git" removed.
func RepositoryNameFromURL(remoteURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(remoteURL), pathSeparatorConstant+windowsPathSeparatorConstant)
	if len(trimmed) == 0 {
		return ""
	}

	lastSegment := trimmed
	if separatorIndex := strings.LastIndexAny(trimmed, pathSeparatorConstant+windowsPathSeparatorConstant); separatorIndex >= 0 {
		lastSegment = trimmed[separatorIndex+1:]
	} else if delimiterIndex := strings.LastIndex(trimmed, scpPathDelimiterConstant); delimiterIndex >= 0 {
		lastSegment = trimmed[delimiterIndex+1:]
	}

	return strings.TrimSuffix(lastSegment, gitSuffixConstant)
}

// RemoteURLsEquivalent reports whether two clone URLs designate the same remote, ignoring a trailing slash and ".git".
func RemoteURLsEquivalent(first string, second string) bool {
	return normalizeRemoteURL(first) == normalizeRemoteURL(second)
}

func normalizeRemoteURL(remoteURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(remoteURL), pathSeparatorConstant)
	return strings.TrimSuffix(trimmed, gitSuffixConstant)
}
