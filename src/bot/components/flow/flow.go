// Package flow drives the omikuji submission conversation and the
// draw/vote actions. It is transport-agnostic: handlers return a
// Response describing what to send and never touch Discord themselves.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/nuscas/omikuji-bot/src/bot/components/session"
	"github.com/nuscas/omikuji-bot/src/shared/data"
	"github.com/nuscas/omikuji-bot/src/shared/fortune"
	"github.com/nuscas/omikuji-bot/src/shared/metrics"
	"github.com/nuscas/omikuji-bot/src/shared/slips"
)

// User identifies who is talking to the bot.
type User struct {
	ID   string
	Name string
}

// Option is one selectable affordance the transport renders as a button.
// Action is the token fed back into HandleAction when it is pressed.
type Option struct {
	Label  string
	Action string
}

// Response is what a handler asks the transport to deliver. The core
// never learns whether delivery succeeded.
type Response struct {
	Text    string
	Options []Option
	// Photo is an image reference to attach, empty when there is none.
	Photo string
}

// Shared reply texts. Anything the user can get wrong is answered with
// one of these instead of an error.
const (
	welcomeText       = "Welcome to use NUSCAS's Omikuji Bot!\nTo start, simply type /start"
	malformedCallback = "Malformed callback request."
	incompleteStrip   = "You have to have a complete omikuji strip before executing `save`."
	saveDone          = "Nice! Your omikuji strip has been saved into our database."
)

type commandFunc func(user User) (Response, error)
type actionFunc func(user User, payload string) (Response, error)

// Engine routes user input to the right conversation step. Callers must
// serialize invocations per user ID; see the dispatch package.
type Engine struct {
	sessions *session.Store
	repo     *slips.Repository
	voting   *slips.Voting
	rdb      *redis.Client

	commands map[string]commandFunc
	actions  map[string]actionFunc
}

// NewEngine wires the conversation engine. rdb may be nil, which
// disables slip event publishing.
func NewEngine(sessions *session.Store, repo *slips.Repository, voting *slips.Voting, rdb *redis.Client) *Engine {
	e := &Engine{
		sessions: sessions,
		repo:     repo,
		voting:   voting,
		rdb:      rdb,
	}
	e.commands = map[string]commandFunc{
		"/start":   e.cmdStart,
		"/current": e.cmdCurrent,
		"/cancel":  e.cmdCancel,
		"/about":   e.cmdAbout,
		"/debug":   e.cmdDebug,
	}
	e.actions = map[string]actionFunc{
		"new":            e.actionNew,
		"draw":           e.actionDraw,
		"choose-class":   e.actionChooseClass,
		"choose-section": e.actionChooseSection,
		"save":           e.actionSave,
		"attach-photo":   e.actionAttachPhoto,
		"skip-photo":     e.actionSkipPhoto,
		"vote":           e.actionVote,
		"cancel":         e.actionCancel,
	}
	return e
}

// HandleText processes a plain chat message: slash commands first, then
// whatever draft step is waiting for free text. Text that nothing waits
// for gets the welcome reply and changes no state.
func (e *Engine) HandleText(user User, text string) (Response, error) {
	if strings.HasPrefix(text, "/") {
		if cmd, ok := e.commands[text]; ok {
			return cmd(user)
		}
		return Response{Text: fmt.Sprintf("Command %s is not recognized.", text)}, nil
	}

	draft := e.sessions.Get(user.ID)
	if draft == nil {
		return Response{Text: welcomeText}, nil
	}

	switch draft.Step() {
	case session.StepDescription:
		// Captured verbatim; content is the author's business.
		draft.Description = &text
		return Response{
			Text:    "Nice. Now, select the first section below.",
			Options: sectionOptions(false),
		}, nil
	case session.StepSectionText:
		draft.Sections[len(draft.Sections)-1].Text = text
		return Response{
			Text:    "Sure. Do you want to add a new section or just save?",
			Options: sectionOptions(true),
		}, nil
	default:
		// No step consumes free text right now (class pick, section
		// pick or the photo question is pending).
		return Response{Text: welcomeText}, nil
	}
}

// HandleAction processes a button press. Tokens look like "cmd" or
// "cmd/payload"; unknown or empty tokens are answered, never fatal.
func (e *Engine) HandleAction(user User, action string) (Response, error) {
	if action == "" {
		return Response{Text: "Callback query has an empty body - probably your client is lousy!"}, nil
	}
	cmd, payload := splitAction(action)
	if h, ok := e.actions[cmd]; ok {
		return h(user, payload)
	}
	return Response{Text: fmt.Sprintf("Callback query %s is not recognized!", cmd)}, nil
}

// HandlePhotoUpload attaches an image to the draft and commits it. A
// photo is only meaningful while the photo question is pending;
// anywhere else it is unhandled input.
func (e *Engine) HandlePhotoUpload(user User, photoRef string) (Response, error) {
	draft := e.sessions.Get(user.ID)
	if draft == nil || draft.Step() != session.StepPhotoDecision {
		return Response{Text: welcomeText}, nil
	}
	return e.commit(user, draft, &photoRef)
}

func splitAction(action string) (cmd, payload string) {
	parts := strings.SplitN(action, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

//
// Commands
//

func (e *Engine) cmdStart(User) (Response, error) {
	return Response{
		Text: "Welcome to use NUSCAS's Omikuji Bot!\nPick what you want to do!",
		Options: []Option{
			{Label: "Create new Omikuji", Action: "new"},
			{Label: "Draw an Omikuji slip", Action: "draw"},
		},
	}, nil
}

func (e *Engine) cmdCurrent(user User) (Response, error) {
	draft := e.sessions.Get(user.ID)
	if draft == nil {
		return Response{Text: "You don't have an omikuji you are currently working on."}, nil
	}
	view := draftMessage(draft, nil)
	return Response{Text: "This is what you are currently working on:\n\n" + view.Render()}, nil
}

func (e *Engine) cmdCancel(user User) (Response, error) {
	return e.cancel(user)
}

func (e *Engine) cmdAbout(User) (Response, error) {
	return Response{
		Text: "This is a bot used for storing and drawing Omikuji strips.\n" +
			"Source code can be found on https://github.com/nuscas/omikuji-bot",
	}, nil
}

func (e *Engine) cmdDebug(user User) (Response, error) {
	draft := e.sessions.Get(user.ID)
	if draft == nil {
		return Response{Text: "No omikuji strip stored."}, nil
	}
	return Response{Text: fmt.Sprintf("%+v", *draft)}, nil
}

//
// Actions
//

func (e *Engine) actionNew(user User, _ string) (Response, error) {
	if !e.sessions.Create(user.ID) {
		return Response{Text: "You have to complete your previous strip before creating a new one."}, nil
	}
	return Response{
		Text:    "Ok. Select a class from below!",
		Options: classOptions(),
	}, nil
}

func (e *Engine) actionDraw(user User, _ string) (Response, error) {
	slip, err := e.repo.DrawRandom()
	if err != nil {
		return Response{}, err
	}
	if slip == nil {
		metrics.Draws.WithLabelValues(metrics.DrawResultEmpty).Inc()
		return Response{Text: "Oops! Our omikuji library is empty."}, nil
	}
	msg, err := fortune.DecodeMessage(slip.Message)
	if err != nil {
		return Response{}, fmt.Errorf("decode slip %d: %w", slip.ID, err)
	}
	metrics.Draws.WithLabelValues(metrics.DrawResultDrawn).Inc()

	resp := Response{
		Text: "You draw a omikuji strip:\n\n" + msg.Render(),
		Options: []Option{
			{Label: "This slip is well written", Action: fmt.Sprintf("vote/+%d", slip.ID)},
			{Label: "I feel insulted :(", Action: fmt.Sprintf("vote/-%d", slip.ID)},
		},
	}
	if msg.Photo != nil {
		resp.Photo = *msg.Photo
	}
	return resp, nil
}

func (e *Engine) actionChooseClass(user User, payload string) (Response, error) {
	draft := e.sessions.Get(user.ID)
	if draft == nil {
		return Response{Text: "You have to create a new omikuji strip before calling `choose-class`."}, nil
	}
	if draft.Class != fortune.ClassUnset {
		return Response{Text: "You have already set the class of this strip."}, nil
	}
	class, err := fortune.ParseClass(payload)
	if err != nil {
		return Response{Text: malformedCallback}, nil
	}
	draft.Class = class
	return Response{Text: "Sure! Can you write a brief description for it?"}, nil
}

func (e *Engine) actionChooseSection(user User, payload string) (Response, error) {
	draft := e.sessions.Get(user.ID)
	if draft == nil {
		return Response{Text: "You have to create a new omikuji strip before calling `choose-section`."}, nil
	}
	if draft.Class == fortune.ClassUnset {
		return Response{Text: "You have to choose a class before creating a new section!"}, nil
	}
	if draft.Description == nil {
		return Response{Text: "You have to enter a brief description before creating a new section!"}, nil
	}
	if len(draft.Sections) > 0 && !draft.LastSectionFilled() {
		return Response{Text: "You have to type the description for the previous section first."}, nil
	}
	kind, err := fortune.ParseSectionKind(payload)
	if err != nil {
		return Response{Text: malformedCallback}, nil
	}
	draft.Sections = append(draft.Sections, fortune.Section{Kind: kind})
	// Adding a section reopens the loop, so a pending photo question is
	// withdrawn until the next save.
	draft.AwaitingPhoto = false
	return Response{Text: fmt.Sprintf("OK. Type your description for section %s below!", kind)}, nil
}

// actionSave moves a commit-ready draft to the photo question. The
// filled-last-section check is the single gate for committing.
func (e *Engine) actionSave(user User, _ string) (Response, error) {
	draft := e.sessions.Get(user.ID)
	if draft == nil || !draft.LastSectionFilled() {
		return Response{Text: incompleteStrip}, nil
	}
	draft.AwaitingPhoto = true
	return Response{
		Text:    "Do you want to upload an image of your omikuji strip? Just send me a photo if you want to!",
		Options: []Option{{Label: "No, just save it!", Action: "skip-photo"}},
	}, nil
}

func (e *Engine) actionAttachPhoto(user User, payload string) (Response, error) {
	if payload == "" {
		return Response{Text: malformedCallback}, nil
	}
	return e.HandlePhotoUpload(user, payload)
}

func (e *Engine) actionSkipPhoto(user User, _ string) (Response, error) {
	draft := e.sessions.Get(user.ID)
	if draft == nil || draft.Step() != session.StepPhotoDecision {
		return Response{Text: incompleteStrip}, nil
	}
	return e.commit(user, draft, nil)
}

// actionVote applies a +<id> or -<id> payload to a stored slip.
func (e *Engine) actionVote(user User, payload string) (Response, error) {
	if len(payload) < 2 {
		return Response{Text: malformedCallback}, nil
	}
	sign := payload[0]
	if sign != '+' && sign != '-' {
		return Response{Text: malformedCallback}, nil
	}
	id, err := strconv.ParseUint(payload[1:], 10, 32)
	if err != nil {
		return Response{Text: malformedCallback}, nil
	}

	upvote := sign == '+'
	if err := e.voting.Cast(uint32(id), upvote); err != nil {
		if errors.Is(err, slips.ErrNotFound) {
			return Response{Text: "Requested omikuji cannot be found."}, nil
		}
		return Response{}, err
	}

	direction, word := metrics.VoteUp, "upvoted"
	if !upvote {
		direction, word = metrics.VoteDown, "downvoted"
	}
	metrics.Votes.WithLabelValues(direction).Inc()
	e.publish("slip_voted", map[string]interface{}{
		"slip_id":   id,
		"direction": direction,
		"voter_id":  user.ID,
	})
	return Response{Text: fmt.Sprintf("Successfully %s the omikuji slip!", word)}, nil
}

func (e *Engine) actionCancel(user User, _ string) (Response, error) {
	return e.cancel(user)
}

// cancel drops the draft whether or not one exists and reports success
// either way.
func (e *Engine) cancel(user User) (Response, error) {
	e.sessions.Delete(user.ID)
	return Response{Text: "Fine. I have deleted the current work-in-progress omikuji. You can start a new one by calling /start!"}, nil
}

// commit turns the draft into a stored slip. The session entry is only
// deleted after the insert succeeds, so a store failure leaves the
// draft intact for a retry.
func (e *Engine) commit(user User, draft *session.Draft, photo *string) (Response, error) {
	msg := draftMessage(draft, photo)
	encoded, err := msg.Encode()
	if err != nil {
		return Response{}, fmt.Errorf("encode omikuji for %s: %w", user.ID, err)
	}
	slip, err := e.repo.Create(encoded, photo, user.ID, user.Name)
	if err != nil {
		return Response{}, err
	}
	e.sessions.Delete(user.ID)

	metrics.SlipsSaved.Inc()
	e.publish("slip_saved", map[string]interface{}{
		"slip_id":   slip.ID,
		"author_id": user.ID,
	})
	return Response{Text: saveDone}, nil
}

func (e *Engine) publish(event string, fields map[string]interface{}) {
	if e.rdb == nil {
		return
	}
	if err := data.PublishSlipEvent(context.Background(), e.rdb, event, fields); err != nil {
		log.Printf("flow: publish %s event: %v", event, err)
	}
}

// draftMessage builds the message view of a draft, complete or not.
func draftMessage(d *session.Draft, photo *string) *fortune.Message {
	msg := &fortune.Message{
		Class:    d.Class,
		Sections: d.Sections,
		Photo:    photo,
	}
	if d.Description != nil {
		msg.Description = *d.Description
	}
	return msg
}

func classOptions() []Option {
	classes := fortune.Classes()
	opts := make([]Option, 0, len(classes))
	for _, c := range classes {
		opts = append(opts, Option{Label: c.String(), Action: "choose-class/" + c.String()})
	}
	return opts
}

func sectionOptions(withSave bool) []Option {
	kinds := fortune.SectionKinds()
	opts := make([]Option, 0, len(kinds)+1)
	for _, k := range kinds {
		opts = append(opts, Option{Label: k.String(), Action: "choose-section/" + k.String()})
	}
	if withSave {
		opts = append(opts, Option{Label: "Just save what is done!", Action: "save"})
	}
	return opts
}
