// Package discord adapts the conversation engine to the Discord
// gateway. Everything transport-specific lives here: event filtering,
// button rendering, attachment handling and reply delivery.
package discord

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/nuscas/omikuji-bot/src/bot/components/dispatch"
	"github.com/nuscas/omikuji-bot/src/bot/components/flow"
)

const (
	unsupportedReply = "Sorry, this kind of message is yet to be supported."
	failureReply     = "Failed to process your message. Please try again."

	buttonsPerRow = 5
)

type Config struct {
	Engine     *flow.Engine
	Dispatcher *dispatch.Dispatcher
	// GuildID and ChannelID narrow which guild traffic is handled.
	// Empty means unrestricted. Direct messages always pass.
	GuildID   string
	ChannelID string
}

type Handler struct {
	config Config
}

func NewHandler(config Config) *Handler {
	return &Handler{config: config}
}

// HandleMessage is the MessageCreate callback. Image attachments feed
// the photo step, plain text feeds the command and capture steps, and
// anything else gets the unsupported reply.
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if !h.inScope(m.GuildID, m.ChannelID) {
		return
	}

	user := flow.User{ID: m.Author.ID, Name: m.Author.Username}

	if len(m.Attachments) > 0 {
		photo := firstImageURL(m.Attachments)
		if photo == "" {
			h.send(s, m.ChannelID, flow.Response{Text: unsupportedReply})
			return
		}
		h.run(s, m.ChannelID, user, func() (flow.Response, error) {
			return h.config.Engine.HandlePhotoUpload(user, photo)
		})
		return
	}

	if m.Content == "" {
		h.send(s, m.ChannelID, flow.Response{Text: unsupportedReply})
		return
	}

	content := m.Content
	h.run(s, m.ChannelID, user, func() (flow.Response, error) {
		return h.config.Engine.HandleText(user, content)
	})
}

// HandleInteraction is the InteractionCreate callback for button
// presses. The pressed message loses its buttons first so a double tap
// cannot fire the action twice.
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	if !h.inScope(i.GuildID, i.ChannelID) {
		return
	}
	author := interactionUser(i)
	if author == nil || author.Bot {
		return
	}

	disarmButtons(s, i)

	user := flow.User{ID: author.ID, Name: author.Username}
	token := i.MessageComponentData().CustomID

	var (
		resp flow.Response
		err  error
	)
	h.config.Dispatcher.Do(user.ID, func() {
		resp, err = h.config.Engine.HandleAction(user, token)
	})
	if err != nil {
		log.Printf("discord: action %q from %s: %v", token, user.ID, err)
		resp = flow.Response{Text: failureReply}
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    resp.Text,
			Components: buildButtons(resp.Options),
			Embeds:     photoEmbeds(resp.Photo),
		},
	}); err != nil {
		log.Printf("discord: interaction respond: %v", err)
	}
}

// run serializes engine work per user and delivers whatever comes back.
func (h *Handler) run(s *discordgo.Session, channelID string, user flow.User, fn func() (flow.Response, error)) {
	var (
		resp flow.Response
		err  error
	)
	h.config.Dispatcher.Do(user.ID, func() {
		resp, err = fn()
	})
	if err != nil {
		log.Printf("discord: message from %s: %v", user.ID, err)
		resp = flow.Response{Text: failureReply}
	}
	h.send(s, channelID, resp)
}

func (h *Handler) send(s *discordgo.Session, channelID string, resp flow.Response) {
	msg := &discordgo.MessageSend{
		Content:    resp.Text,
		Components: buildButtons(resp.Options),
		Embeds:     photoEmbeds(resp.Photo),
	}
	if _, err := s.ChannelMessageSendComplex(channelID, msg); err != nil {
		log.Printf("discord: send to %s: %v", channelID, err)
	}
}

// inScope filters guild traffic down to the configured guild and
// channel. A message with no guild is a DM and is always handled.
func (h *Handler) inScope(guildID, channelID string) bool {
	if guildID == "" {
		return true
	}
	if h.config.GuildID != "" && guildID != h.config.GuildID {
		return false
	}
	if h.config.ChannelID != "" && channelID != h.config.ChannelID {
		return false
	}
	return true
}

// disarmButtons strips the keyboard off the message whose button was
// pressed. Failure only means the stale keyboard stays clickable, so
// the error is logged and ignored.
func disarmButtons(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Message == nil || len(i.Message.Components) == 0 {
		return
	}
	empty := []discordgo.MessageComponent{}
	if _, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         i.Message.ID,
		Channel:    i.ChannelID,
		Components: &empty,
	}); err != nil {
		log.Printf("discord: disarm buttons on %s: %v", i.Message.ID, err)
	}
}

// buildButtons renders options as secondary buttons, five per action
// row per the Discord component limits.
func buildButtons(options []flow.Option) []discordgo.MessageComponent {
	if len(options) == 0 {
		return nil
	}

	var components []discordgo.MessageComponent
	var currentRow []discordgo.MessageComponent

	for _, opt := range options {
		button := discordgo.Button{
			Label:    opt.Label,
			Style:    discordgo.SecondaryButton,
			CustomID: opt.Action,
		}
		currentRow = append(currentRow, button)
		if len(currentRow) == buttonsPerRow {
			components = append(components, discordgo.ActionsRow{Components: currentRow})
			currentRow = nil
		}
	}

	if len(currentRow) > 0 {
		components = append(components, discordgo.ActionsRow{Components: currentRow})
	}

	return components
}

func photoEmbeds(url string) []*discordgo.MessageEmbed {
	if url == "" {
		return nil
	}
	return []*discordgo.MessageEmbed{{
		Image: &discordgo.MessageEmbedImage{URL: url},
	}}
}

// firstImageURL picks the first attachment Discord identifies as an
// image. Non-image uploads do not count as photos.
func firstImageURL(attachments []*discordgo.MessageAttachment) string {
	for _, a := range attachments {
		if a == nil {
			continue
		}
		if strings.HasPrefix(a.ContentType, "image/") {
			return a.URL
		}
	}
	return ""
}

// interactionUser digs the acting user out of an interaction, which
// carries it under Member in guilds and under User in DMs.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
