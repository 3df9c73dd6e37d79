package discord

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/nuscas/omikuji-bot/src/bot/components/flow"
)

func TestBuildButtonsRowPacking(t *testing.T) {
	tests := []struct {
		options int
		rows    []int
	}{
		{0, nil},
		{1, []int{1}},
		{5, []int{5}},
		{6, []int{5, 1}},
		{11, []int{5, 5, 1}},
		{12, []int{5, 5, 2}},
	}
	for _, tc := range tests {
		var opts []flow.Option
		for i := 0; i < tc.options; i++ {
			opts = append(opts, flow.Option{
				Label:  fmt.Sprintf("label %d", i),
				Action: fmt.Sprintf("action/%d", i),
			})
		}

		rows := buildButtons(opts)
		if len(rows) != len(tc.rows) {
			t.Fatalf("%d options: %d rows, want %d", tc.options, len(rows), len(tc.rows))
		}
		for rowIdx, row := range rows {
			actionsRow, ok := row.(discordgo.ActionsRow)
			if !ok {
				t.Fatalf("%d options: row %d is %T, not ActionsRow", tc.options, rowIdx, row)
			}
			if len(actionsRow.Components) != tc.rows[rowIdx] {
				t.Fatalf("%d options: row %d has %d buttons, want %d",
					tc.options, rowIdx, len(actionsRow.Components), tc.rows[rowIdx])
			}
		}
	}
}

func TestBuildButtonsCarriesTokens(t *testing.T) {
	rows := buildButtons([]flow.Option{{Label: "Travel", Action: "choose-section/Travel"}})
	row := rows[0].(discordgo.ActionsRow)
	button, ok := row.Components[0].(discordgo.Button)
	if !ok {
		t.Fatalf("component is %T, not Button", row.Components[0])
	}
	if button.Label != "Travel" || button.CustomID != "choose-section/Travel" {
		t.Fatalf("button = %+v", button)
	}
	if button.Style != discordgo.SecondaryButton {
		t.Fatalf("button style = %v", button.Style)
	}
}

func TestFirstImageURL(t *testing.T) {
	if got := firstImageURL(nil); got != "" {
		t.Fatalf("no attachments gave %q", got)
	}

	atts := []*discordgo.MessageAttachment{
		nil,
		{URL: "https://cdn.example.org/notes.pdf", ContentType: "application/pdf"},
		{URL: "https://cdn.example.org/slip.png", ContentType: "image/png"},
		{URL: "https://cdn.example.org/second.jpg", ContentType: "image/jpeg"},
	}
	if got := firstImageURL(atts); got != "https://cdn.example.org/slip.png" {
		t.Fatalf("firstImageURL = %q", got)
	}

	onlyDocs := []*discordgo.MessageAttachment{
		{URL: "https://cdn.example.org/notes.pdf", ContentType: "application/pdf"},
	}
	if got := firstImageURL(onlyDocs); got != "" {
		t.Fatalf("non-image attachment treated as photo: %q", got)
	}
}

func TestInteractionUser(t *testing.T) {
	member := &discordgo.User{ID: "10", Username: "guild-side"}
	direct := &discordgo.User{ID: "20", Username: "dm-side"}

	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: member},
	}}
	if got := interactionUser(guild); got != member {
		t.Fatalf("guild interaction user = %+v", got)
	}

	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: direct}}
	if got := interactionUser(dm); got != direct {
		t.Fatalf("dm interaction user = %+v", got)
	}

	empty := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}
	if got := interactionUser(empty); got != nil {
		t.Fatalf("empty interaction user = %+v", got)
	}
}

func TestInScope(t *testing.T) {
	h := NewHandler(Config{GuildID: "g1", ChannelID: "c1"})

	tests := []struct {
		name      string
		guildID   string
		channelID string
		want      bool
	}{
		{"dm always passes", "", "any", true},
		{"right guild and channel", "g1", "c1", true},
		{"wrong guild", "g2", "c1", false},
		{"wrong channel", "g1", "c2", false},
	}
	for _, tc := range tests {
		if got := h.inScope(tc.guildID, tc.channelID); got != tc.want {
			t.Errorf("%s: inScope(%q, %q) = %v, want %v", tc.name, tc.guildID, tc.channelID, got, tc.want)
		}
	}

	open := NewHandler(Config{})
	if !open.inScope("g9", "c9") {
		t.Fatal("unrestricted handler rejected guild traffic")
	}

	guildOnly := NewHandler(Config{GuildID: "g1"})
	if !guildOnly.inScope("g1", "c9") {
		t.Fatal("guild-only handler rejected an in-guild channel")
	}
}

func TestPhotoEmbeds(t *testing.T) {
	if got := photoEmbeds(""); got != nil {
		t.Fatalf("empty photo gave %d embeds", len(got))
	}
	embeds := photoEmbeds("https://cdn.example.org/slip.png")
	if len(embeds) != 1 || embeds[0].Image == nil || embeds[0].Image.URL != "https://cdn.example.org/slip.png" {
		t.Fatalf("photo embed = %+v", embeds)
	}
}
