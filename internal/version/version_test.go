package version

import (
	"runtime"
	"testing"
)

func TestGetPrefersLinkedValues(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = oldVersion, oldCommit, oldDate })

	Version, Commit, BuildDate = "v1.2.3", "abc1234", "2024-06-10T08:00:00Z"
	got := Get()
	if got.Version != "v1.2.3" || got.Commit != "abc1234" || got.BuildDate != "2024-06-10T08:00:00Z" {
		t.Errorf("Get() = %+v, want linked values", got)
	}
	if got.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", got.GoVersion, runtime.Version())
	}
}

func TestShortRevision(t *testing.T) {
	if got := shortRevision("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortRevision() = %q", got)
	}
	if got := shortRevision("abc"); got != "abc" {
		t.Errorf("shortRevision() = %q", got)
	}
}
