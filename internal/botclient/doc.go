// Package botclient holds the frontend logic shared by the chat bots.
//
// A bot keeps one thread id per external chat in the bot_threads table and
// forwards every non-command message to the gateway's bot channel with that
// thread id and a fresh request id. /start replies with a greeting and
// /reset rotates the chat's thread id so the backend sees a new conversation.
package botclient
