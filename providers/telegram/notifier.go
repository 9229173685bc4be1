package telegram

import (
	"fmt"
	"sync"
	"time"

	"gitlab.com/aoterocom/AOBacktester/interfaces"
	tb "gopkg.in/tucnak/telebot.v2"
)

// Notifier sends messages to a single telegram chat.
type Notifier struct {
	apiURL string
	token  string
	chatId string

	once    sync.Once
	bot     *tb.Bot
	chat    *tb.Chat
	initErr error
}

func NewNotifier(token string, chatId string) *Notifier {
	return &Notifier{token: token, chatId: chatId}
}

// WithAPIURL points the notifier at another Bot API server.
func (n *Notifier) WithAPIURL(apiURL string) *Notifier {
	n.apiURL = apiURL
	return n
}

func (n *Notifier) init() {
	n.bot, n.initErr = tb.NewBot(tb.Settings{
		// If URL is empty it equals to "https://api.telegram.org".
		URL:    n.apiURL,
		Token:  n.token,
		Poller: &tb.LongPoller{Timeout: 10 * time.Second},
	})
	if n.initErr != nil {
		return
	}
	n.chat, n.initErr = n.bot.ChatByID(n.chatId)
}

func (n *Notifier) Notify(message string) error {
	n.once.Do(n.init)
	if n.initErr != nil {
		return fmt.Errorf("error: telegram setup: %w", n.initErr)
	}
	if _, err := n.bot.Send(n.chat, message); err != nil {
		return fmt.Errorf("error: telegram send: %w", err)
	}
	return nil
}

var _ interfaces.Notifier = (*Notifier)(nil)
