package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Main menu buttons
	"menu.track":     "🎵 Track",
	"menu.album":     "💽 Album",
	"menu.tracklist": "📃 Tracklist",

	// Prompts
	"prompt.start": "Hi! I scrobble tracks, albums and tracklists to your account.\n" +
		"Pick what you want to scrobble using the keyboard below.",
	"prompt.help": "🎵 Track — scrobble a single song: send its name, artist and album title on separate lines.\n" +
		"💽 Album — scrobble a whole album: send the artist name and the album title on separate lines.\n" +
		"📃 Tracklist — scrobble a custom list: one track per line, like\n" +
		"Artist | Title | Album",
	"prompt.track":      "Type the song name, the artist and the album title separated by new lines. Example:\n\n%s\n%s\n%s (optional)",
	"prompt.album":      "Send me the artist name and the album title separated by a new line:",
	"prompt.tracklist":  "Send me the track list. One track per line, like:\n\nArtist | Title | Album",
	"prompt.edit_album": "Edit the track list and send it back to me:",
	"prompt.idle":       "Pick what you want to scrobble using the keyboard below.",
	"prompt.auth": "Please click the link below to grant access to your account " +
		"and then push the OK button.",
	"prompt.album_preview": "💽 %s — %s\n\n%s\n\nScrobble this album?",

	"album.not_found": "I could not find that album. Check the spelling and send the artist and album title again.",

	// Auth flow
	"auth.granted": "Glad to see you, %s!\n\nNow you can scrobble your first song.",
	"auth.denied":  "❌ Access has not been granted. Please re-authenticate.",

	// Submission outcomes
	"scrobble.success":  "✅ Success!",
	"scrobble.failed":   "❌ Failed: %s",
	"scrobble.cooldown": "⏳ You can scrobble only once every %d seconds. Hold on a bit.",
	"scrobble.invalid":  "Every track needs a name and an artist. Please check the list and send it again.",

	// Buttons
	"button.grant":    "Grant access…",
	"button.ok":       "OK",
	"button.retry":    "Retry",
	"button.repeat":   "Repeat",
	"button.edit":     "✏️ Edit",
	"button.scrobble": "✅ Scrobble",
	"button.cancel":   "Cancel",

	// Callback toasts
	"callback.expired":  "This button has expired.",
	"callback.working":  "Working on it…",
	"callback.canceled": "Canceled.",

	// Misc
	"msg.canceled":  "Canceled.",
	"error.generic": "❗️ Oops, something went wrong. Please try again later.",
	"admin.alert":   "❗️ An error occurred: %s",
}
