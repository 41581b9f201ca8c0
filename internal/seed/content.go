package seed

var localLines = []string{
	"Hey there! How's it going?",
	"I was thinking about that project we discussed",
	"Did you see the news today?",
	"Can we meet up later?",
	"Thanks for your help yesterday!",
	"I'm running late, sorry!",
	"What do you think about this idea?",
	"Have you tried that new restaurant downtown?",
	"Just checking in 😊",
	"Remember to send me those files when you get a chance",
	"Happy Friday! 🎉",
	"How was your weekend?",
	"I'll be there in 10 minutes",
	"Can you help me with something?",
	"Let me know when you're free to talk",
}

var contactLines = []string{
	"Not bad, how about you?",
	"Yeah, we should discuss that further",
	"I did! It's pretty concerning",
	"Sure, when works for you?",
	"No problem at all!",
	"No worries, take your time",
	"Sounds interesting! Tell me more",
	"Not yet, is it good?",
	"All good here! 👍",
	"Will do that tonight",
	"You too! Any plans?",
	"It was great! Went hiking ⛰️",
	"See you soon!",
	"Of course, what's up?",
	"I'm available now if you want to chat",
}

// ReplyPool is the fixed set of texts simulated replies are drawn from.
func ReplyPool() []string {
	return []string{
		"Got it, thanks!",
		"I'll get back to you on this.",
		"Thanks for letting me know.",
		"Sounds good!",
		"👍",
		"That works for me.",
		"I'm not sure about that...",
		"Can we discuss this later?",
		"Interesting point!",
		"Let me think about it.",
	}
}

// AttachmentKinds lists the kinds AttachmentLabel knows, in picker order.
func AttachmentKinds() []string {
	return []string{"image", "document", "video", "browse"}
}

// AttachmentLabel returns the message text sent for an attachment of kind.
func AttachmentLabel(kind string) string {
	switch kind {
	case "image":
		return "📷 [Image attachment]"
	case "document":
		return "📄 [Document attachment]"
	case "video":
		return "🎥 [Video attachment]"
	case "browse":
		return "📎 [File attachment]"
	}
	return "Attachment"
}
