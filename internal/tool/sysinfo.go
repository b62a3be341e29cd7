package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"
)

// SystemInfoTool reports current time, timezone, and OS details.
type SystemInfoTool struct{}

// NewSystemInfoTool creates a system info tool.
func NewSystemInfoTool() *SystemInfoTool { return &SystemInfoTool{} }

func (s *SystemInfoTool) Name() string { return "get_system_info" }

func (s *SystemInfoTool) Description() string {
	return "Get system information including current time, timezone, and operating system."
}

func (s *SystemInfoTool) Definition() Definition {
	return Definition{
		Name:        s.Name(),
		Description: s.Description(),
		Parameters: map[string]any{
			"info_type": map[string]any{
				"type":        "string",
				"enum":        []string{"time", "timezone", "os", "all"},
				"description": "Type of information to retrieve",
			},
		},
		Required: []string{"info_type"},
	}
}

func (s *SystemInfoTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	infoType := optionalStringArg(args, "info_type")
	if infoType == "" {
		infoType = "all"
	}

	switch infoType {
	case "time", "timezone", "os", "all":
	default:
		return "", fmt.Errorf("unknown info_type %q", infoType)
	}

	info := make(map[string]string)
	now := time.Now()

	if infoType == "time" || infoType == "all" {
		info["current_time"] = now.Format("2006-01-02 15:04:05")
		info["iso_format"] = now.Format(time.RFC3339)
	}
	if infoType == "timezone" || infoType == "all" {
		zone, _ := now.Zone()
		info["timezone"] = zone
	}
	if infoType == "os" || infoType == "all" {
		info["operating_system"] = runtime.GOOS
		info["machine"] = runtime.GOARCH
	}

	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding system info: %w", err)
	}
	return string(out), nil
}
