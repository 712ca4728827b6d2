package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/draft"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/shared"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const contextBloatTokens = 4000

const helpText = `🧑‍🍳 *Meal planner*

/plan - show this week's draft or final plan
/draft dinners|lunches|snacks - fill open slots
/clear dinners|lunches|snacks - clear unlocked days
/lock mon, /unlock mon
/replace mon dinner Tacos
/leftover tue lunch Chili
/swap mon wed
/finalize - commit the draft
/stock Chili 2 fridge
/unstock Chili
/inventory
/history - recent final plans
Send a recipe URL to clip it.`

// sender is the part of the Telegram API the bot sends through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot wraps the Telegram API and the planner application.
type Bot struct {
	api          *tgbotapi.BotAPI
	out          sender
	app          *app.App
	metricsStore *metrics.Store
	cfg          *config.Config
	dataDir      string
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, metricsStore *metrics.Store, dataDir string) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		out:          bot,
		app:          a,
		metricsStore: metricsStore,
		cfg:          cfg,
		dataDir:      dataDir,
	}, nil
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !b.cfg.IsAllowed(update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(ctx, msg.Chat.ID, text)
		return
	}

	reply := b.respond(ctx, msg.From.ID, text)
	if reply == "" {
		return
	}
	b.sendMarkdown(msg.Chat.ID, reply)
}

// respond runs a chat command and returns the Markdown reply. An empty reply means
// nothing should be sent.
func (b *Bot) respond(ctx context.Context, fromID int64, text string) string {
	userID := strconv.FormatInt(fromID, 10)
	cmd, args := parseCommand(text)
	coord := b.app.Coordinator()

	switch cmd {
	case "start", "help":
		return helpText

	case "plan":
		return b.planView(ctx, userID)

	case "draft":
		phase, err := phaseArg(args)
		if err != nil {
			return errorReply(err)
		}
		res, err := b.app.DraftPhase(ctx, userID, phase)
		if err != nil {
			return errorReply(err)
		}
		b.checkContextBloat(res.Meta)
		view := formatWeekMarkdown("Draft", res.Session.WeekStart, res.Session.Store, res.Session.Locked, res.OverAllocations)
		return formatAllocationSummary(res.Report, res.Warnings) + "\n\n" + view

	case "clear":
		phase, err := phaseArg(args)
		if err != nil {
			return errorReply(err)
		}
		sess, err := coord.Clear(ctx, userID, phase)
		return b.sessionReply(ctx, userID, sess, err)

	case "lock", "unlock":
		if len(args) != 1 {
			return errorReply(fmt.Errorf("%w: usage /%s <day>", planner.ErrInvalidInput, cmd))
		}
		day, err := planner.ParseDay(args[0])
		if err != nil {
			return errorReply(err)
		}
		if cmd == "lock" {
			sess, err := coord.Lock(ctx, userID, day)
			return b.sessionReply(ctx, userID, sess, err)
		}
		sess, err := coord.Unlock(ctx, userID, day)
		return b.sessionReply(ctx, userID, sess, err)

	case "replace", "leftover":
		if len(args) < 3 {
			return errorReply(fmt.Errorf("%w: usage /%s <day> <slot> <name>", planner.ErrInvalidInput, cmd))
		}
		day, err := planner.ParseDay(args[0])
		if err != nil {
			return errorReply(err)
		}
		slot, err := planner.ParseSlotType(args[1])
		if err != nil {
			return errorReply(err)
		}
		kind := planner.SourceRecipe
		if cmd == "leftover" {
			kind = planner.SourceLeftover
		}
		sess, err := coord.Replace(ctx, userID, day, slot, strings.Join(args[2:], " "), kind)
		return b.sessionReply(ctx, userID, sess, err)

	case "swap":
		if len(args) != 2 {
			return errorReply(fmt.Errorf("%w: usage /swap <day> <day>", planner.ErrInvalidInput))
		}
		a, err := planner.ParseDay(args[0])
		if err != nil {
			return errorReply(err)
		}
		d, err := planner.ParseDay(args[1])
		if err != nil {
			return errorReply(err)
		}
		if _, err := b.app.Swap(ctx, userID, a, d); err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("🔁 Swapped %s and %s dinners.\n\n", a.Name(), d.Name()) + b.planView(ctx, userID)

	case "finalize":
		plan, err := b.app.FinalizeDraft(ctx, userID)
		if err != nil {
			return errorReply(err)
		}
		return "🎉 *Plan finalized!*\n\n" + formatWeekMarkdown("Final plan", plan.WeekStart, plan.Store, nil, nil)

	case "stock":
		item, err := parseStockArgs(args)
		if err != nil {
			return errorReply(err)
		}
		if err := b.app.Stock(ctx, item); err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("🧊 Stocked %s: %d (%s)", escapeMarkdown(item.Name), item.Quantity, item.Location)

	case "unstock":
		if len(args) == 0 {
			return errorReply(fmt.Errorf("%w: usage /unstock <name>", planner.ErrInvalidInput))
		}
		name := strings.Join(args, " ")
		if err := b.app.Unstock(ctx, name); err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("🗑 Removed %s from inventory.", escapeMarkdown(name))

	case "history":
		plans, err := b.app.History(ctx, userID, 4)
		if err != nil {
			return errorReply(err)
		}
		return formatHistoryMarkdown(plans)

	case "inventory":
		items, err := b.app.Inventory(ctx)
		if err != nil {
			return errorReply(err)
		}
		return formatInventoryMarkdown(items)

	case "metrics":
		if fromID != b.cfg.AdminTelegramID {
			return "⛔ *Access Denied*: Admin only."
		}
		return b.metricsReport(ctx)
	}

	return "🤔 Unknown command.\n\n" + helpText
}

func (b *Bot) planView(ctx context.Context, userID string) string {
	plan, err := b.app.CommittedPlan(ctx, userID)
	if err != nil {
		return errorReply(err)
	}
	if plan != nil {
		return formatWeekMarkdown("Final plan", plan.WeekStart, plan.Store, nil, nil)
	}
	sess, over, err := b.app.ShowDraft(ctx, userID)
	if err != nil {
		return errorReply(err)
	}
	return formatWeekMarkdown("Draft", sess.WeekStart, sess.Store, sess.Locked, over)
}

// sessionReply renders the draft after an edit, with any over-allocation warnings.
func (b *Bot) sessionReply(ctx context.Context, userID string, sess *draft.Session, err error) string {
	if err != nil {
		return errorReply(err)
	}
	over, err := b.app.Coordinator().Reconcile(ctx, userID)
	if err != nil {
		log.Printf("Warning: could not reconcile draft for %s: %v", userID, err)
	}
	return formatWeekMarkdown("Draft", sess.WeekStart, sess.Store, sess.Locked, over)
}

func (b *Bot) handleClipperRequest(ctx context.Context, chatID int64, url string) {
	replyMsg := tgbotapi.NewMessage(chatID, "✂️ *Clipping recipe...* \n(Extracting and saving to your blog)")
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.out.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	var finalText string
	res, err := b.app.ClipRecipe(ctx, url)
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error clipping recipe:*\n```\n%v\n```", safeErr)
	} else {
		types := "none"
		if len(res.Recipe.MealTypes) > 0 {
			names := make([]string, 0, len(res.Recipe.MealTypes))
			for _, mt := range res.Recipe.MealTypes {
				names = append(names, string(mt))
			}
			types = strings.Join(names, ", ")
		}
		finalText = fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Rotation:* %s\n*Post ID:* %s",
			escapeMarkdown(res.Post.Title), types, res.Post.ID)
	}
	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	if _, err := b.out.Send(edit); err != nil {
		log.Printf("Failed to edit reply: %v", err)
	}
}

func (b *Bot) metricsReport(ctx context.Context) string {
	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		return "❌ Error fetching metrics."
	}

	health := metrics.GetSysHealth(b.dataDir)

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %s (Alloc) / %s (Sys)\n", health.Alloc, health.Sys)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}

func (b *Bot) checkContextBloat(meta shared.AgentMeta) {
	if meta.Usage.PromptTokens <= contextBloatTokens {
		return
	}
	b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\n\nAgent: %s\nPrompt tokens: %d\nLatency: %s",
		escapeMarkdown(meta.AgentName), meta.Usage.PromptTokens, meta.Latency.Round(time.Millisecond)))
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.out.Send(msg); err != nil {
		log.Printf("Failed to send reply: %v", err)
	}
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 || b.out == nil {
		return
	}
	b.sendMarkdown(b.cfg.AdminTelegramID, text)
}

// parseCommand splits "/cmd@bot a b" into "cmd" and its arguments.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}

func phaseArg(args []string) (planner.Phase, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: expected one of dinners, lunches, snacks", planner.ErrInvalidInput)
	}
	return planner.ParsePhase(args[0])
}

// parseStockArgs reads "<name...> <qty> <fridge|freezer>".
func parseStockArgs(args []string) (planner.InventoryMealItem, error) {
	if len(args) < 3 {
		return planner.InventoryMealItem{}, fmt.Errorf("%w: usage /stock <name> <qty> <fridge|freezer>", planner.ErrInvalidInput)
	}
	n := len(args)
	qty, err := strconv.Atoi(args[n-2])
	if err != nil || qty < 0 {
		return planner.InventoryMealItem{}, fmt.Errorf("%w: invalid quantity %q", planner.ErrInvalidInput, args[n-2])
	}
	loc, err := planner.ParseLocation(args[n-1])
	if err != nil {
		return planner.InventoryMealItem{}, err
	}
	return planner.InventoryMealItem{Name: strings.Join(args[:n-2], " "), Quantity: qty, Location: loc}, nil
}

// errorReply renders invalid input as a hint and anything else as a failure. Stale
// results are dropped without a reply.
func errorReply(err error) string {
	switch {
	case errors.Is(err, planner.ErrStaleData):
		return ""
	case errors.Is(err, planner.ErrInvalidInput):
		return "⚠️ " + escapeMarkdown(err.Error())
	}
	log.Printf("Error handling command: %v", err)
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error:*\n```\n%v\n```", safeErr)
}
