package version

var (
	// These values are injected during build - DO NOT MODIFY
	Version   = "VERSION_PLACEHOLDER"
	CommitSHA = "COMMIT_PLACEHOLDER"
)

func GetVersionInfo() string {
	return "cardforge " + Version
}

func GetDetailedVersionInfo() string {
	return "cardforge\n" +
		"Version:  " + Version + "\n" +
		"Commit:   " + CommitSHA + "\n"
}

// UserAgent is sent by the store and generator HTTP clients.
func UserAgent() string {
	return "cardforge/" + Version
}
