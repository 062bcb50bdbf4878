// Package hubitat talks to a Hubitat hub through its Maker API app and
// resolves the names users type into hub entities.
//
// Client covers the Maker API endpoints hubibot uses: the device inventory,
// device commands, info, status and event history, location modes and the
// Hubitat Safety Monitor (HSM). Requests are plain GETs authenticated by the
// access_token query parameter; there is no retry.
//
// Registry owns the device inventory cache and the enabled device groups,
// and resolves:
//   - device names, several at once joined by the configured separator,
//     all-or-nothing
//   - location mode names against the hub's live mode list
//   - alarm (HSM arm) states against the configured hsm_arm_values
//
// Every resolution tries the exact folded name first, then the alias rules
// of hubitat.aliases.<device|mode|alarm> in order. Device names finally
// fall back to a full-match regex search of the labels.
package hubitat
