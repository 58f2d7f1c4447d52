package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const propertiesFileName = "server.properties"

// Properties holds the key=value pairs of a server.properties file.
type Properties map[string]string

func defaultProperties() Properties {
	return Properties{
		"motd":          "A Minecraft Server",
		"server-port":   "25565",
		"max-players":   "20",
		"difficulty":    "normal",
		"enable-rcon":   "true",
		"rcon.port":     "25575",
		"rcon.password": "",
		"server-ip":     "localhost",
	}
}

// LoadProperties reads dir/server.properties over the defaults. A missing
// or unreadable file yields the defaults; malformed lines are skipped.
func LoadProperties(dir string) Properties {
	props := defaultProperties()

	data, err := os.ReadFile(filepath.Join(dir, propertiesFileName))
	if err != nil {
		return props
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return props
}

// Write persists the properties to dir/server.properties, sorted by key.
func (p Properties) Write(dir string) error {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("# Minecraft server properties\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, p[k])
	}

	return os.WriteFile(filepath.Join(dir, propertiesFileName), []byte(b.String()), 0644)
}

// Get returns the value for key, or def if the key is absent or empty.
func (p Properties) Get(key, def string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return def
}
