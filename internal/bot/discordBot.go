package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/akolanti/RagBot/internal/adapter/utils"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/chatModel"
	"github.com/akolanti/RagBot/internal/rag"
	"github.com/akolanti/RagBot/pkg/logger_i"
	"github.com/bwmarrin/discordgo"
)

/*
The Discord bot is a thin transport over the same pipeline the HTTP
handlers use. It owns nothing but the gateway session and a per-session
stash of the last answer's previews, which backs the !sources follow-up.
Without a token the bot constructs fine and Start is a no-op, so main
never has to care whether Discord is configured.
*/

// channelSender is the slice of discordgo.Session the message flow needs.
// Tests hand in a fake; the real session satisfies it as-is.
type channelSender interface {
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Bot struct {
	session   *discordgo.Session
	rag       rag.Service
	sessions  chatModel.SessionStore
	askPrefix string
	enabled   bool
	logger    *logger_i.Logger

	mu          sync.Mutex
	lastSources map[string][]rag.Preview
}

// New builds the bot. With no DISCORD_BOT_TOKEN configured the returned
// bot is disabled but still usable, Start and Stop do nothing.
func New(ragService rag.Service, sessions chatModel.SessionStore) (*Bot, error) {
	b := &Bot{
		rag:         ragService,
		sessions:    sessions,
		askPrefix:   config.DiscordCommandPrefix,
		logger:      logger_i.NewLogger("DiscordBot"),
		lastSources: make(map[string][]rag.Preview),
	}

	if config.DiscordBotToken == "" {
		b.logger.Info("Discord bot disabled, DISCORD_BOT_TOKEN is not set")
		return b, nil
	}

	session, err := discordgo.New("Bot " + config.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	session.AddHandler(func(s *discordgo.Session, event *discordgo.Ready) {
		b.logger.Info("Discord bot online", "user", event.User.Username, "guilds", len(event.Guilds))
	})
	session.AddHandler(b.messageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b.session = session
	b.enabled = true
	return b, nil
}

func (b *Bot) Enabled() bool {
	return b.enabled
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if !b.enabled {
		return nil
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord connection: %w", err)
	}
	b.logger.Info("Discord bot started", "askPrefix", strings.TrimSpace(b.askPrefix))
	return nil
}

func (b *Bot) Stop() error {
	if !b.enabled || b.session == nil {
		return nil
	}
	return b.session.Close()
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.handleMessage(s, m)
}

func (b *Bot) handleMessage(s channelSender, m *discordgo.MessageCreate) {
	if m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	switch content {
	case "!start":
		b.send(s, m.ChannelID, b.welcomeText())
		return
	case "!help":
		b.send(s, m.ChannelID, b.helpText())
		return
	case "!clear":
		b.clearSession(s, m)
		return
	case "!sources":
		b.showSources(s, m)
		return
	}

	if !strings.HasPrefix(m.Content, b.askPrefix) {
		// a bare "!ask" misses the trailing space of the prefix
		if content == strings.TrimSpace(b.askPrefix) {
			b.send(s, m.ChannelID, fmt.Sprintf("Ask me like this: `%s<question>`", b.askPrefix))
		}
		return
	}

	question := strings.TrimSpace(m.Content[len(b.askPrefix):])
	if question == "" {
		b.send(s, m.ChannelID, fmt.Sprintf("Ask me like this: `%s<question>`", b.askPrefix))
		return
	}

	b.answer(s, m, question)
}

func (b *Bot) answer(s channelSender, m *discordgo.MessageCreate, question string) {
	key := sessionKey(m.Author.ID, m.ChannelID)
	log := b.logger.With("session", key)

	// greetings get a canned reply, the pipeline costs two model calls
	if isGreeting(question) {
		b.send(s, m.ChannelID, greetingReply)
		return
	}

	if err := s.ChannelTyping(m.ChannelID); err != nil {
		log.Debug("Typing indicator failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.AskDeadline)
	defer cancel()
	ctx = context.WithValue(ctx, config.TRACE_ID_KEY, utils.GetNewUUID())

	history, err := b.sessions.GetHistory(ctx, key)
	if err != nil {
		log.Warn("History unavailable, answering without it", "error", err)
		history = nil
	}

	result, err := b.rag.Answer(ctx, question, history)
	if err != nil {
		log.Error("Ask pipeline failed: %v", err)
		b.send(s, m.ChannelID, config.FailureAnswer)
		return
	}

	// Discord renders no HTML, the history keeps the same plain text
	answer := rag.PlainAnswer(result.Answer)

	exchange := chatModel.Exchange{Question: question, Answer: answer, Asked: time.Now()}
	if err := b.sessions.SaveExchange(ctx, key, exchange); err != nil {
		log.Warn("Could not persist exchange", "error", err)
	}

	b.rememberSources(key, result.Previews)
	b.send(s, m.ChannelID, answer)
	if len(result.Previews) > 0 {
		b.send(s, m.ChannelID, "Type `!sources` to see where this came from.")
	}
}

func (b *Bot) clearSession(s channelSender, m *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), config.ClearSessionDeadline)
	defer cancel()
	ctx = context.WithValue(ctx, config.TRACE_ID_KEY, utils.GetNewUUID())

	key := sessionKey(m.Author.ID, m.ChannelID)
	if err := b.sessions.ClearSession(ctx, key); err != nil {
		b.logger.Error("Clearing session failed: %v", err)
		b.send(s, m.ChannelID, "Could not clear the conversation, try again in a moment.")
		return
	}
	b.forgetSources(key)
	b.send(s, m.ChannelID, "Conversation history cleared.")
}

func (b *Bot) showSources(s channelSender, m *discordgo.MessageCreate) {
	previews := b.recallSources(sessionKey(m.Author.ID, m.ChannelID))
	if len(previews) == 0 {
		b.send(s, m.ChannelID, "No sources saved yet. Ask a question first.")
		return
	}
	b.send(s, m.ChannelID, sourcesText(previews))
}

// send pushes a message out, split into as many parts as the Discord
// length limit demands.
func (b *Bot) send(s channelSender, channelId, message string) {
	for _, part := range splitMessage(message, config.DiscordMessageLimit) {
		if _, err := s.ChannelMessageSend(channelId, part); err != nil {
			b.logger.Error("Sending discord message failed: %v", err)
			return
		}
	}
}

func (b *Bot) rememberSources(key string, previews []rag.Preview) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(previews) == 0 {
		delete(b.lastSources, key)
		return
	}
	b.lastSources[key] = previews
}

func (b *Bot) recallSources(key string) []rag.Preview {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSources[key]
}

func (b *Bot) forgetSources(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.lastSources, key)
}

func (b *Bot) welcomeText() string {
	return fmt.Sprintf(`Welcome! I answer questions from the documentation knowledge base.

Commands:
%s<question> - ask the knowledge base
!sources - show the sources behind the last answer
!clear - clear the conversation history
!help - show this help`, b.askPrefix)
}

func (b *Bot) helpText() string {
	return fmt.Sprintf(`I look up answers in the documentation knowledge base.

- Ask with %s<question>
- I remember the conversation per user and channel, so follow-up questions work
- !sources after an answer shows the passages it was built from
- !clear starts the conversation over`, b.askPrefix)
}

const greetingReply = "Hello! Ask me a question about the documentation and I will look it up."

// greetings that skip the pipeline when they make up the whole message.
var greetings = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"greetings", "howdy", "yo",
}

// isGreeting reports whether text is a bare greeting: a listed greeting,
// alone or followed by a couple of words. The match stops at a word
// boundary so "history of the api" never counts as "hi".
func isGreeting(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" || len(strings.Fields(t)) > 3 {
		return false
	}
	for _, g := range greetings {
		if t == g {
			return true
		}
		if strings.HasPrefix(t, g) {
			r, _ := utf8.DecodeRuneInString(t[len(g):])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return true
			}
		}
	}
	return false
}

func sessionKey(userId, channelId string) string {
	return fmt.Sprintf("discord_%s_%s", userId, channelId)
}

func sourcesText(previews []rag.Preview) string {
	var sb strings.Builder
	sb.WriteString("Sources for the last answer:\n")
	for i, p := range previews {
		fmt.Fprintf(&sb, "\n%d. %s\n%s\n", i+1, p.Title, p.Excerpt)
	}
	return sb.String()
}

// splitMessage cuts a message into parts no longer than limit bytes,
// preferring line breaks so lists and code blocks survive the cut.
// Counting bytes undershoots Discord's code point limit, never the
// reverse.
func splitMessage(message string, limit int) []string {
	if len(message) <= limit {
		return []string{message}
	}

	var parts []string
	for len(message) > limit {
		cut := strings.LastIndexByte(message[:limit+1], '\n')
		if cut < 0 {
			cut = strings.LastIndexByte(message[:limit], ' ')
		}
		if cut <= 0 {
			cut = limit
			// back off a hard cut that would land inside a rune
			for cut > 1 && !utf8.RuneStart(message[cut]) {
				cut--
			}
		}
		if part := strings.TrimSpace(message[:cut]); part != "" {
			parts = append(parts, part)
		}
		message = strings.TrimSpace(message[cut:])
	}
	if message != "" {
		parts = append(parts, message)
	}
	return parts
}
