package schedule

import "strings"

// ItemType tags a resolved schedule entry.
type ItemType string

const (
	ItemTask     ItemType = "task"
	ItemBreak    ItemType = "break"
	ItemMeal     ItemType = "meal"
	ItemTimeOff  ItemType = "time_off"
	ItemCalendar ItemType = "calendar_event"
	ItemPod      ItemType = "regen_pod"
)

// keywordRule classifies a task by substring match on its lowercased name.
// The table is ordered and first match wins, so precedence is auditable:
// "lunch break" is a meal, not a break, because meal keywords come first.
type keywordRule struct {
	keyword string
	typ     ItemType
	emoji   string
}

var keywordTable = []keywordRule{
	{"time off", ItemTimeOff, "🌴"},
	{"breakfast", ItemMeal, "🍳"},
	{"lunch", ItemMeal, "🥪"},
	{"dinner", ItemMeal, "🍽️"},
	{"brunch", ItemMeal, "🥞"},
	{"snack", ItemMeal, "🍎"},
	{"break", ItemBreak, "☕"},
	{"rest", ItemBreak, "🛋️"},
	{"nap", ItemBreak, "😴"},

	// task emojis only from here down; type stays ItemTask
	{"gym", ItemTask, "🏋️"},
	{"workout", ItemTask, "💪"},
	{"run", ItemTask, "🏃"},
	{"walk", ItemTask, "🚶"},
	{"meeting", ItemTask, "👥"},
	{"call", ItemTask, "📞"},
	{"email", ItemTask, "📧"},
	{"write", ItemTask, "✍️"},
	{"read", ItemTask, "📖"},
	{"study", ItemTask, "📚"},
	{"code", ItemTask, "💻"},
	{"design", ItemTask, "🎨"},
	{"clean", ItemTask, "🧹"},
	{"shop", ItemTask, "🛒"},
	{"cook", ItemTask, "🍳"},
	{"music", ItemTask, "🎵"},
	{"plan", ItemTask, "🗓️"},
	{"review", ItemTask, "🔍"},
}

const defaultEmoji = "📌"

// ClassifyName resolves an item type and emoji from a free-text task name.
func ClassifyName(name string) (ItemType, string) {
	lower := strings.ToLower(name)
	for _, rule := range keywordTable {
		if strings.Contains(lower, rule.keyword) {
			return rule.typ, rule.emoji
		}
	}
	return ItemTask, defaultEmoji
}

// IsMealName reports whether the name keyword-matches a meal.
func IsMealName(name string) bool {
	typ, _ := ClassifyName(name)
	return typ == ItemMeal
}
