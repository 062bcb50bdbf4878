// Package config resolves and validates hubibot configuration.
//
// Settings are built from four layers, each overriding the one before it:
//   - the bundled template (template.yaml, embedded in the binary)
//   - an optional override file (HUBIBOT_CONFIG_FILE, default ./config.yaml)
//   - environment variables named HUBIBOT_<SECTION>_<KEY>
//   - command line arguments of the same HUBIBOT_<SECTION>_<KEY>=value form
//
// Environment and command line values are text. They are coerced to integers,
// floats, booleans or flow lists where they parse as such, and kept as
// strings otherwise (with a warning).
//
// Device groups and user groups are dynamic sections: any group named in
// hubitat.enabled_device_groups or telegram.enabled_user_groups that the
// override file does not define is created from the template's "default"
// entry and may be filled in purely from the environment, for example
// HUBIBOT_TELEGRAM_USER_GROUPS_ADMINS_IDS="[123456]".
//
// Security Considerations:
//   - Tokens (hubitat.token, telegram.token, api.jwt_secret) should be set via
//     environment variables rather than the override file
//   - The override file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load(os.Args[1:], nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Hubitat.BaseURL())
package config
