package interactions

import "math/rand/v2"

var emojis = []string{"😀", "😃", "😄", "😁", "😆", "😅", "😂", "🤣", "😊", "😇", "🎉", "😎", "👍", "👌", "🤘"}

func randomEmoji() string {
	return emojis[rand.IntN(len(emojis))]
}
