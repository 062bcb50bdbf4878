// Package auth provides access control for hubibot.
//
// Every principal holds one AccessLevel from a total order:
//
//	NONE < DEVICE < SECURITY < ADMIN
//
// A principal at level L may run anything gated at L or below, so help
// listings are cumulative as well.
//
// Chat principals come from telegram.user_groups. Each enabled user group
// assigns a level and a list of device groups to a set of chat user ids; an
// id may appear in only one group. Users.Get never fails: an unknown id
// yields the "nobody" user at NONE with no device groups, which callers
// reject with the configured rejected message.
//
// Admin API callers present an HS256 JWT whose "level" claim carries an
// access level by name. Tokens are minted by the "hubibot token" command.
package auth
