//go:build !windows && !darwin

package automation

// DefaultActions returns the Linux and BSD action table
func DefaultActions() map[string]Command {
	return map[string]Command{
		"ping":     {Name: "ping", Args: []string{"-c", "4", "8.8.8.8"}},
		"chrome":   {Name: "xdg-open", Args: []string{"https://www.google.com"}},
		"lock":     {Name: "loginctl", Args: []string{"lock-session"}},
		"shutdown": {Name: "systemctl", Args: []string{"poweroff"}},
		"getmac":   {Name: "ip", Args: []string{"link", "show"}},
		"arp":      {Name: "ip", Args: []string{"neigh", "show"}},
	}
}
