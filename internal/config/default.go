package config

import "gopkg.in/yaml.v3"

// DefaultYAML renders the default configuration as a commented YAML
// document suitable for bootstrapping a config file.
func DefaultYAML() (string, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", err
	}
	header := "# agentguard configuration.\n" +
		"# Safety checks run in a fixed order: subject standing, quota,\n" +
		"# content, injection. Toggles under 'pipeline' turn individual\n" +
		"# rejections into observations.\n" +
		"#\n" +
		"# Edit and reload: the server watches this file for changes.\n\n"
	return header + string(data), nil
}
