package hostfacts

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

// BootTimeSystem selects the kernel boot time instead of the process start
const BootTimeSystem = "system"

// ResolveBootTime interprets a boot time setting:
//   - "" returns start
//   - "system" returns the kernel boot time
//   - digits are unix seconds
//   - anything else must be RFC3339
func ResolveBootTime(ctx context.Context, setting string, start time.Time) (time.Time, error) {
	setting = strings.TrimSpace(setting)
	switch {
	case setting == "":
		return start, nil
	case strings.EqualFold(setting, BootTimeSystem):
		secs, err := host.BootTimeWithContext(ctx)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to read system boot time: %w", err)
		}
		return time.Unix(int64(secs), 0), nil
	}

	if secs, err := strconv.ParseInt(setting, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	t, err := time.Parse(time.RFC3339, setting)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid boot time %q: want unix seconds, RFC3339 or %q", setting, BootTimeSystem)
	}
	return t, nil
}
