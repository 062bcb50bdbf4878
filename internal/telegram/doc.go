// Package telegram is hubibot's chat transport: a small Bot API client
// and a long-polling loop that hands each message to the bot.
//
// Markdown replies that the API refuses to parse are sent again as plain
// text. Replies longer than MaxMessageLength are split on line
// boundaries.
package telegram
