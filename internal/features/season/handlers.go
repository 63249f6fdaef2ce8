// Package season — handlers.go обрабатывает команды и медиа в личке бота.
package season

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/season-bot/internal/common"
	"serotonyl.ru/season-bot/internal/features/journal"
)

// Callback-данные inline-кнопок.
const (
	CallbackPrefix       = "epmode:"
	CallbackModeMarker   = "epmode:marker"
	CallbackModeThree    = "epmode:three"
	CallbackFormatHelp   = "format:help"
	CallbackSessionAbort = "session:cancel"
)

const helpText = `👋 <b>Season Post Bot</b>

Forward your season videos to me and I will post them back in order.

<b>Episode-by-episode post</b>
/new – start a new season
/setnames – episode titles, one per line after the command
/setformat – caption template with {ep} and {quality} (optional)
/setstickers &lt;id1&gt; &lt;id2&gt; – closing stickers, or reply /setsticker to a sticker twice
/publish – post everything

<b>Quality-by-quality post</b>
/qualitysort – start, then send the Powered By post
/setformat – caption template (required)
/publish – post 480p, then 720p, then 1080p

<b>Both</b>
/epmode – switch episode detection (E01 or 001)
/ignore &lt;text&gt; – cut the show name out before detection
/status – what is collected so far
/history – last publications
/cancel – drop the session`

const formatExample = `/setformat
➥ Anime Name [S02]
🎬 Episode - {ep}
🎧 Language - Hindi #Official
🔎 Quality : {quality}
📡 Powered by : @Channel`

// Handler — обработчик сезонных команд.
type Handler struct {
	service *Service
	bot     *telego.Bot
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, bot *telego.Bot) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleStart показывает справку.
func (h *Handler) HandleStart(ctx context.Context, msg *telego.Message) {
	h.reply(ctx, msg, helpText, nil)
}

// HandleNew начинает сессию заданного вида.
func (h *Handler) HandleNew(ctx context.Context, msg *telego.Message, kind Kind) {
	h.service.Start(msg.From.ID, kind)

	if kind == KindQualityFirst {
		h.reply(ctx, msg,
			"🎬 <b>Quality sort session started</b>\n\n"+
				"1. Send the <b>Powered By</b> post (any text or photo)\n"+
				"2. Set the caption with /setformat\n"+
				"3. Forward the videos (480p / 720p / 1080p)\n"+
				"4. /publish when done\n\n"+
				"⚙️ /epmode changes episode detection",
			tu.InlineKeyboard(
				tu.InlineKeyboardRow(
					tu.InlineKeyboardButton("📋 Set Format").WithCallbackData(CallbackFormatHelp),
					tu.InlineKeyboardButton("❌ Cancel").WithCallbackData(CallbackSessionAbort),
				),
			))
		return
	}
	h.reply(ctx, msg,
		"🆕 <b>New season started</b>\n\n"+
			"Forward the videos, then /setnames, /setstickers and /publish.", nil)
}

// HandleCancel сбрасывает сессию.
func (h *Handler) HandleCancel(ctx context.Context, msg *telego.Message) {
	h.service.Start(msg.From.ID, KindEpisodeFirst)
	h.reply(ctx, msg, "❌ Session cancelled.", nil)
}

// HandleSetNames сохраняет названия эпизодов (строки после команды).
func (h *Handler) HandleSetNames(ctx context.Context, msg *telego.Message, payload string) {
	count, start, err := h.service.SetTitles(msg.From.ID, strings.Split(payload, "\n"))
	if err != nil {
		h.replyError(ctx, msg, err)
		return
	}
	h.reply(ctx, msg, fmt.Sprintf("✅ Stored <b>%d</b> %s, starting from episode %s.",
		count, common.Plural(count, "episode name", "episode names"), common.FormatEpisode(start)), nil)
}

// HandleSetFormat сохраняет шаблон подписи.
func (h *Handler) HandleSetFormat(ctx context.Context, msg *telego.Message, payload string) {
	if strings.TrimSpace(payload) == "" {
		h.reply(ctx, msg, "❌ Send the format after the command:\n\n<code>"+html.EscapeString(formatExample)+"</code>", nil)
		return
	}
	if err := h.service.SetTemplate(msg.From.ID, payload); err != nil {
		h.replyError(ctx, msg, err)
		return
	}
	preview := RenderCaption(h.service.Session(msg.From.ID).CaptionTemplate, 1, Quality720)
	h.reply(ctx, msg, "✅ <b>Caption format saved.</b> Preview:\n\n"+html.EscapeString(preview), nil)
}

// HandleSetStickers задаёт оба стикера из аргументов.
func (h *Handler) HandleSetStickers(ctx context.Context, msg *telego.Message, args []string) {
	if err := h.service.SetStickers(msg.From.ID, args); err != nil {
		h.replyError(ctx, msg, err)
		return
	}
	h.reply(ctx, msg, "✅ Stickers saved.", nil)
}

// HandleSetSticker добавляет стикер из сообщения, на которое ответили командой.
func (h *Handler) HandleSetSticker(ctx context.Context, msg *telego.Message) {
	reply := msg.ReplyToMessage
	if reply == nil || reply.Sticker == nil {
		h.reply(ctx, msg, "❌ Reply to a sticker with /setsticker.", nil)
		return
	}
	n := h.service.AddSticker(msg.From.ID, reply.Sticker.FileID)
	if n == 1 {
		h.reply(ctx, msg, "✅ Sticker 1 of 2 saved. Reply /setsticker to the second one.", nil)
		return
	}
	h.reply(ctx, msg, "✅ Sticker 2 of 2 saved. Both stickers are set.", nil)
}

// HandleSticker подсказывает ID присланного стикера.
func (h *Handler) HandleSticker(ctx context.Context, msg *telego.Message) {
	h.reply(ctx, msg, "🏷 Sticker ID:\n<code>"+html.EscapeString(msg.Sticker.FileID)+"</code>\n\n"+
		"Reply /setsticker to it to use it in the post.", nil)
}

// HandleIgnore задаёт подстроку, вырезаемую перед распознаванием.
func (h *Handler) HandleIgnore(ctx context.Context, msg *telego.Message, payload string) {
	stored := h.service.SetIgnore(msg.From.ID, payload)
	if stored == "" {
		h.reply(ctx, msg, "✅ Ignore text cleared.", nil)
		return
	}
	h.reply(ctx, msg, "✅ Will ignore <code>"+html.EscapeString(stored)+"</code> when detecting episodes.", nil)
}

// HandleEpMode показывает выбор режима или сразу ставит режим из аргумента.
func (h *Handler) HandleEpMode(ctx context.Context, msg *telego.Message, args []string) {
	if len(args) > 0 {
		mode, ok := ParseMode(args[0])
		if !ok {
			h.reply(ctx, msg, "❌ Unknown mode. Use <code>marker</code> or <code>three</code>.", nil)
			return
		}
		h.service.SetMode(msg.From.ID, mode)
		h.reply(ctx, msg, "⚙️ Episode detection mode: <b>"+mode.Label()+"</b>", nil)
		return
	}
	current := h.service.Session(msg.From.ID).Mode
	h.reply(ctx, msg, modeText(current), modeKeyboard(current))
}

// HandleCallback обрабатывает нажатия inline-кнопок.
func (h *Handler) HandleCallback(ctx context.Context, query *telego.CallbackQuery) {
	userID := query.From.ID
	logger := log.WithFields(log.Fields{
		"component": "season",
		"user_id":   userID,
		"data":      query.Data,
	})

	answer := ""
	switch {
	case strings.HasPrefix(query.Data, CallbackPrefix):
		mode, ok := ParseMode(strings.TrimPrefix(query.Data, CallbackPrefix))
		if !ok {
			answer = "Unknown mode"
			break
		}
		h.service.SetMode(userID, mode)
		h.editMessage(ctx, query, modeText(mode), modeKeyboard(mode))
		answer = "Mode updated!"

	case query.Data == CallbackFormatHelp:
		if query.Message != nil {
			h.send(ctx, query.Message.GetChat().ID,
				"📝 <b>Set the caption format</b>\n\n<code>"+html.EscapeString(formatExample)+"</code>", nil, 0)
		}

	case query.Data == CallbackSessionAbort:
		h.service.Start(userID, KindEpisodeFirst)
		h.editMessage(ctx, query, "❌ Session cancelled.", nil)

	default:
		logger.Debug("неизвестный callback")
	}

	if err := h.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
		Text:            answer,
	}); err != nil {
		logger.WithError(err).Warn("Ошибка ответа на callback")
	}
}

// HandleStatus показывает состояние сессии.
func (h *Handler) HandleStatus(ctx context.Context, msg *telego.Message) {
	h.reply(ctx, msg, FormatStatus(h.service.Session(msg.From.ID)), nil)
}

// HandleHistory показывает последние публикации.
func (h *Handler) HandleHistory(ctx context.Context, msg *telego.Message) {
	runs, err := h.service.History(ctx, msg.From.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", msg.From.ID).Error("Ошибка чтения журнала")
		h.reply(ctx, msg, "❌ History is unavailable right now.", nil)
		return
	}
	if len(runs) == 0 {
		h.reply(ctx, msg, "📜 No publications yet.", nil)
		return
	}

	var b strings.Builder
	b.WriteString("📜 <b>Recent publications</b>\n")
	for _, run := range runs {
		icon := "✅"
		switch run.Status {
		case journal.StatusRunning:
			icon = "⏳"
		case journal.StatusFailed:
			icon = "❌"
		}
		kind := "episodes"
		if Kind(run.Kind) == KindQualityFirst {
			kind = "qualities"
		}
		fmt.Fprintf(&b, "\n%s %s · by %s · %s, %s · %s",
			icon, run.StartedAt.Format("02.01 15:04"), kind,
			common.CountOf(run.Episodes, "episode", "episodes"),
			common.CountOf(run.Videos, "video", "videos"),
			run.Duration().Round(time.Second))
		if run.Error != "" {
			fmt.Fprintf(&b, "\n   <i>%s</i>", html.EscapeString(run.Error))
		}
	}
	h.reply(ctx, msg, b.String(), nil)
}

// HandlePublish публикует сессию в этот же чат.
func (h *Handler) HandlePublish(ctx context.Context, msg *telego.Message) {
	chatID := msg.Chat.ID
	rep, err := h.service.Publish(ctx, msg.From.ID, chatID, func(plan Plan) {
		h.reply(ctx, msg, fmt.Sprintf("🚀 <b>Starting publication…</b>\n%s, %s.",
			common.CountOf(plan.Episodes, "episode", "episodes"),
			common.CountOf(plan.Videos, "video", "videos")), nil)
	})

	switch {
	case err == nil:
		h.send(ctx, chatID, fmt.Sprintf("🎉 <b>Done!</b> Published %s (%s). Use /new to begin a new season.",
			common.CountOf(rep.Episodes, "episode", "episodes"),
			common.CountOf(rep.Videos, "video", "videos")), nil, 0)

	case errors.Is(err, common.ErrPublishInProgress):
		h.replyError(ctx, msg, err)

	case rep.Emitted == 0 && isPrecondition(err):
		var b strings.Builder
		b.WriteString("❌ <b>Can't publish yet:</b>")
		for _, line := range strings.Split(err.Error(), "\n") {
			b.WriteString("\n• " + html.EscapeString(line))
		}
		h.reply(ctx, msg, b.String(), nil)

	default:
		h.send(ctx, chatID, fmt.Sprintf("❌ Publication stopped after %d %s:\n<code>%s</code>",
			rep.Emitted, common.Plural(rep.Emitted, "message", "messages"), html.EscapeString(err.Error())), nil, 0)
	}
}

// HandleMedia принимает видео (или видео-документ).
func (h *Handler) HandleMedia(ctx context.Context, msg *telego.Message) {
	item, ok := MediaFromMessage(msg)
	if !ok {
		return
	}
	res, err := h.service.Intake(msg.From.ID, item)
	if err != nil {
		var b strings.Builder
		b.WriteString("❗️")
		for i, line := range strings.Split(err.Error(), "\n") {
			if i > 0 {
				b.WriteString("\n❗️")
			}
			b.WriteString(html.EscapeString(capitalize(line)))
		}
		h.reply(ctx, msg, b.String(), nil)
		return
	}

	note := ""
	if res.Replaced {
		note = " (replaced)"
	}
	h.reply(ctx, msg, fmt.Sprintf("📥 Saved <b>Episode %s</b> • <b>%s</b>%s (episodes collected: %d)",
		common.FormatEpisode(res.Episode), res.Quality, note, res.Episodes), nil)
}

// HandleText сохраняет вводный пост для публикации по качествам.
// Возвращает false, если сообщение не было использовано.
func (h *Handler) HandleText(ctx context.Context, msg *telego.Message) bool {
	if !isAnnouncementCandidate(msg) {
		return false
	}
	ref := MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID}
	if !h.service.OfferAnnouncement(msg.From.ID, ref) {
		return false
	}
	next := "Now forward the videos."
	if h.service.Session(msg.From.ID).CaptionTemplate == "" {
		next = "Now set the caption format with /setformat."
	}
	h.reply(ctx, msg, "✅ <b>Powered By post saved!</b>\n\n"+next, nil)
	return true
}

// isAnnouncementCandidate отсекает неизвестные и опечатанные команды ("/foo"),
// чтобы они не сохранялись как пост Powered By.
func isAnnouncementCandidate(msg *telego.Message) bool {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	return !strings.HasPrefix(strings.TrimSpace(text), "/")
}

// MediaFromMessage достаёт видео из сообщения: video или документ с video/* MIME.
func MediaFromMessage(msg *telego.Message) (MediaItem, bool) {
	switch {
	case msg.Video != nil:
		return MediaItem{FileID: msg.Video.FileID, FileName: msg.Video.FileName, Caption: msg.Caption}, true
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "video/"):
		return MediaItem{FileID: msg.Document.FileID, FileName: msg.Document.FileName, Caption: msg.Caption}, true
	}
	return MediaItem{}, false
}

// FormatStatus описывает сессию для /status.
func FormatStatus(s *Session) string {
	var b strings.Builder
	b.WriteString("📊 <b>Session status</b>\n")
	if s.Kind == KindQualityFirst {
		b.WriteString("Type: quality by quality\n")
		fmt.Fprintf(&b, "Powered By post: %s\n", setOrNot(s.Announcement != nil))
	} else {
		b.WriteString("Type: episode by episode\n")
		fmt.Fprintf(&b, "Titles: %d (from episode %s)\n", len(s.Titles), common.FormatEpisode(s.StartEpisode))
		fmt.Fprintf(&b, "Stickers: %d/2\n", len(s.Stickers))
	}
	fmt.Fprintf(&b, "Caption format: %s\n", setOrNot(s.CaptionTemplate != ""))
	fmt.Fprintf(&b, "Detection mode: %s\n", s.Mode.Label())
	if s.IgnoreText != "" {
		fmt.Fprintf(&b, "Ignoring: <code>%s</code>\n", html.EscapeString(s.IgnoreText))
	}
	fmt.Fprintf(&b, "\n📹 Episodes collected: %d\n", s.EpisodeCount())
	counts := s.QualityCounts()
	for _, q := range QualityOrder {
		fmt.Fprintf(&b, "• %s: %d\n", q, counts[q])
	}
	if s.Kind == KindEpisodeFirst && len(s.Assets) > 0 {
		if missing := s.MissingEpisodes(); len(missing) > 0 {
			eps := make([]string, len(missing))
			for i, ep := range missing {
				eps[i] = common.FormatEpisode(ep)
			}
			fmt.Fprintf(&b, "\n⚠️ No videos for episodes: %s\n", strings.Join(eps, ", "))
		}
	}
	if err := Validate(s); err != nil {
		b.WriteString("\n<b>Before /publish:</b>")
		for _, line := range strings.Split(err.Error(), "\n") {
			b.WriteString("\n• " + html.EscapeString(line))
		}
	} else {
		b.WriteString("\n✅ Ready to /publish")
	}
	return b.String()
}

func isPrecondition(err error) bool {
	for _, target := range []error{
		common.ErrNoTitles, common.ErrNeedTwoStickers, common.ErrNoAssets,
		common.ErrNoTemplate, common.ErrNoAnnouncement,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func setOrNot(ok bool) string {
	if ok {
		return "set"
	}
	return "not set"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func modeText(current Mode) string {
	return "⚙️ <b>Episode detection mode</b>\n\n" +
		"• <b>Sequential-Marker</b>: S01E07, Episode 7, Ep.07, E07\n" +
		"• <b>Three-Digit</b>: 001, (039)\n\n" +
		"Current: <b>" + current.Label() + "</b>"
}

func modeKeyboard(current Mode) *telego.InlineKeyboardMarkup {
	marker, three := "Sequential (E01)", "Three-Digit (001)"
	if current == ModeThreeDigit {
		three = "✅ " + three
	} else {
		marker = "✅ " + marker
	}
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(marker).WithCallbackData(CallbackModeMarker),
			tu.InlineKeyboardButton(three).WithCallbackData(CallbackModeThree),
		),
	)
}

// reply отвечает на сообщение пользователя.
func (h *Handler) reply(ctx context.Context, msg *telego.Message, text string, markup telego.ReplyMarkup) {
	h.send(ctx, msg.Chat.ID, text, markup, msg.MessageID)
}

func (h *Handler) replyError(ctx context.Context, msg *telego.Message, err error) {
	h.reply(ctx, msg, "❌ "+html.EscapeString(capitalize(err.Error())), nil)
}

// send — утилита для отправки HTML-сообщений.
func (h *Handler) send(ctx context.Context, chatID int64, text string, markup telego.ReplyMarkup, replyTo int) {
	params := &telego.SendMessageParams{
		ChatID:      tu.ID(chatID),
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: markup,
	}
	if replyTo != 0 {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
	}
	if _, err := h.bot.SendMessage(ctx, params); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (h *Handler) editMessage(ctx context.Context, query *telego.CallbackQuery, text string, markup *telego.InlineKeyboardMarkup) {
	if query.Message == nil {
		return
	}
	_, err := h.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(query.Message.GetChat().ID),
		MessageID:   query.Message.GetMessageID(),
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		log.WithError(err).WithField("user_id", query.From.ID).Warn("Ошибка редактирования сообщения")
	}
}
