package domain

import (
	"strconv"
	"strings"
	"time"
)

// AppDownloadPath is where clients fetch the current release when they are
// told to update.
const AppDownloadPath = "/apk/app-release.apk"

// MaxUpdateDescriptionLength bounds the release notes shown to clients.
const MaxUpdateDescriptionLength = 2000

// AppSettings holds the operator-controlled switches shared by all users.
type AppSettings struct {
	RegistrationEnabled bool
	CurrentVersion      string
	UpdateDescription   string
	HasUpdate           bool
	UpdatedAt           time.Time
}

// VersionCheck tells a client whether it runs an outdated release.
type VersionCheck struct {
	NeedsUpdate       bool
	CurrentVersion    string
	UpdateDescription string
	DownloadURL       string // empty unless NeedsUpdate
}

// CheckVersion compares the client's release with the server's.
func (s AppSettings) CheckVersion(clientVersion string) VersionCheck {
	vc := VersionCheck{
		CurrentVersion:    s.CurrentVersion,
		UpdateDescription: s.UpdateDescription,
		NeedsUpdate:       CompareVersions(clientVersion, s.CurrentVersion) < 0,
	}
	if vc.NeedsUpdate {
		vc.DownloadURL = AppDownloadPath
	}
	return vc
}

// CompareVersions orders dotted numeric versions: -1 if a < b, 0 if equal,
// 1 if a > b. Missing parts count as zero, so "1.2" equals "1.2.0".
// Non-numeric parts also count as zero.
func CompareVersions(a, b string) int {
	pa := strings.Split(strings.TrimSpace(a), ".")
	pb := strings.Split(strings.TrimSpace(b), ".")
	for i := 0; i < max(len(pa), len(pb)); i++ {
		x, y := versionPart(pa, i), versionPart(pb, i)
		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
	}
	return 0
}

func versionPart(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
	if err != nil {
		return 0
	}
	return n
}

// ValidateVersion accepts dotted numeric versions such as "1.3.0".
func ValidateVersion(field, v string) error {
	const op = "settings.version.validate"

	v = strings.TrimSpace(v)
	if v == "" {
		return NewValidationError(op, field, "Version is required")
	}
	for _, p := range strings.Split(v, ".") {
		if _, err := strconv.Atoi(p); err != nil || strings.HasPrefix(p, "-") || strings.HasPrefix(p, "+") {
			return NewValidationError(op, field, "Version must look like 1.2.0")
		}
	}
	return nil
}
