// Package alert delivers interview reminders as Telegram voice notes.
//
// Render builds the spoken sentence from an InterviewRecord, substituting
// placeholders for missing fields. Alerter synthesizes that sentence to MP3,
// stages it in a temporary file, and uploads it with the Bot API sendVoice
// method. The bot token and chat id are always supplied by the caller.
package alert
