//go:build darwin

package automation

// DefaultActions returns the macOS action table
func DefaultActions() map[string]Command {
	return map[string]Command{
		"ping":     {Name: "ping", Args: []string{"-c", "4", "8.8.8.8"}},
		"chrome":   {Name: "open", Args: []string{"-a", "Google Chrome"}},
		"lock":     {Name: "pmset", Args: []string{"displaysleepnow"}},
		"shutdown": {Name: "osascript", Args: []string{"-e", `tell app "System Events" to shut down`}},
		"getmac":   {Name: "ifconfig", Args: []string{"-a", "ether"}},
		"arp":      {Name: "arp", Args: []string{"-a"}},
	}
}
