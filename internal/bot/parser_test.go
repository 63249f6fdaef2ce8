package bot

import (
	"reflect"
	"testing"
)

func TestCommandParser(t *testing.T) {
	p := NewCommandParser()
	tests := []struct {
		name string
		text string
		ok   bool
		want Command
	}{
		{
			name: "plain",
			text: "/publish",
			ok:   true,
			want: Command{Name: "publish"},
		},
		{
			name: "bot mention and args",
			text: "/setstickers@SeasonBot id1 id2",
			ok:   true,
			want: Command{Name: "setstickers", Args: []string{"id1", "id2"}, Payload: "id1 id2"},
		},
		{
			name: "multiline payload",
			text: "/setnames\nEpisode 1 - One\nEpisode 2 - Two",
			ok:   true,
			want: Command{Name: "setnames", Payload: "Episode 1 - One\nEpisode 2 - Two"},
		},
		{
			name: "bang prefix and case",
			text: "!EpMode three",
			ok:   true,
			want: Command{Name: "epmode", Args: []string{"three"}, Payload: "three"},
		},
		{
			name: "payload keeps spaces",
			text: "/ignore  Mob Psycho 100 ",
			ok:   true,
			want: Command{Name: "ignore", Args: []string{"Mob", "Psycho", "100"}, Payload: "Mob Psycho 100"},
		},
		{name: "plain text", text: "hello", ok: false},
		{name: "bare prefix", text: "/", ok: false},
		{
			// неизвестная команда дальше уходит в обработку текста
			name: "announcement bangs",
			text: "!!! New season",
			ok:   true,
			want: Command{Name: "!!", Args: []string{"New", "season"}, Payload: "New season"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Parse(tt.text)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}
