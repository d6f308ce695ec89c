package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixPlugin is the prefix for cached plugin payloads
	KeyPrefixPlugin = "linkus:plugin:"
)

// PluginKey returns the Redis key for the payload of plugin on service
func PluginKey(plugin, service string) string {
	return KeyPrefixPlugin + plugin + ":" + service
}

// PluginPattern matches every cached payload of plugin, or of all plugins when empty
func PluginPattern(plugin string) string {
	if plugin == "" {
		return KeyPrefixPlugin + "*"
	}
	return KeyPrefixPlugin + plugin + ":*"
}

// SplitPluginKey extracts plugin and service names from a payload key
func SplitPluginKey(key string) (plugin, service string, err error) {
	rest, ok := strings.CutPrefix(key, KeyPrefixPlugin)
	if !ok {
		return "", "", fmt.Errorf("invalid plugin key: %s", key)
	}
	plugin, service, ok = strings.Cut(rest, ":")
	if !ok || plugin == "" || service == "" {
		return "", "", fmt.Errorf("invalid plugin key: %s", key)
	}
	return plugin, service, nil
}
