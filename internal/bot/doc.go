// Package bot implements hubibot's chat commands independently of the chat
// transport.
//
// The transport hands each inbound Message to Bot.Handle and sends back the
// returned replies in order. Handle:
//
//  1. rejects principals missing from the user registry with the
//     configured rejected message
//  2. answers plain text with the caller's help listing
//  3. answers unknown commands, and commands above the caller's access
//     level, with "Unknown command." and the help listing
//  4. runs the command, resolving device, mode and alarm names through the
//     hubitat Registry within the caller's device groups
//  5. delivers a CommandEvent to every configured Sink
//
// Help listings are cumulative: each level sees its own commands followed
// by those of every lower level.
//
// Each principal's timezone lives in memory only and falls back to
// main.default_timezone. Hub errors end the command with "Internal error".
package bot
