package container

import (
	"sort"
	"time"
)

// Label key constants identify containers started by flight-launcher.
// Labels are the only mark the launcher leaves on a container, and they
// are what the status command filters on when listing active runs.
//
// All keys share the "flight-launcher." prefix to avoid collisions with
// labels set by other tooling.
const (
	// LabelPrefix is the common prefix for all launcher labels.
	LabelPrefix = "flight-launcher."

	// LabelManagedBy identifies containers started by this launcher.
	// Key: "flight-launcher.managed-by", value: always ManagedByValue.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelBaseDir records the host base directory mounted into the
	// container.
	LabelBaseDir = LabelPrefix + "base-dir"

	// LabelTarget records the target program file name.
	LabelTarget = LabelPrefix + "target"

	// LabelImage records the image the run was started from.
	LabelImage = LabelPrefix + "image"

	// LabelStartedAt records the RFC3339 start timestamp in UTC.
	LabelStartedAt = LabelPrefix + "started-at"
)

// ManagedByValue is the constant value for LabelManagedBy.
const ManagedByValue = "flight-launcher"

// BuildLabels constructs the label map applied to a launched container.
func BuildLabels(baseDir, target, image string, startedAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelBaseDir:   baseDir,
		LabelTarget:    target,
		LabelImage:     image,
		LabelStartedAt: startedAt.UTC().Format(time.RFC3339),
	}
}

// LabelArgs flattens a label map into "--label k=v" docker run arguments.
// Keys are sorted so the produced command line is deterministic, which
// keeps verbose output and tests stable.
func LabelArgs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, "--label", k+"="+labels[k])
	}
	return args
}
