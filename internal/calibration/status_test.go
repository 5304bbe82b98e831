package calibration

import (
	"encoding/json"
	"testing"
)

func TestDeriveState(t *testing.T) {
	tests := []struct {
		current, total uint
		want           State
	}{
		{0, 5, Idle},
		{0, 0, Idle},
		{1, 5, InProgress},
		{4, 5, InProgress},
		{5, 5, Completed},
		{7, 5, Completed},
		{3, 0, InProgress},
	}

	for _, tt := range tests {
		if got := DeriveState(tt.current, tt.total); got != tt.want {
			t.Errorf("DeriveState(%d, %d) = %s, want %s", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestStatus_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Status
	}{
		{
			name: "derived",
			in:   `{"width":1280,"height":720,"current_step":3,"total_steps":200}`,
			want: Status{State: InProgress, CurrentStep: 3, TotalSteps: 200, Width: 1280, Height: 720},
		},
		{
			name: "explicit failed",
			in:   `{"state":"failed","current_step":3,"total_steps":5}`,
			want: Status{State: Failed, CurrentStep: 3, TotalSteps: 5},
		},
		{
			name: "explicit camel case",
			in:   `{"state":"InProgress","current_step":0,"total_steps":5}`,
			want: Status{State: InProgress, TotalSteps: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Status
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	var s Status
	if err := json.Unmarshal([]byte(`{"state":"paused"}`), &s); err == nil {
		t.Error("unknown state should fail to decode")
	}
}

func TestStatus_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Status{State: Completed, CurrentStep: 5, TotalSteps: 5})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"state":"completed","current_step":5,"total_steps":5,"width":0,"height":0}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestStatus_Progress(t *testing.T) {
	tests := []struct {
		status Status
		want   float64
	}{
		{Status{CurrentStep: 0, TotalSteps: 4}, 0},
		{Status{CurrentStep: 1, TotalSteps: 4}, 0.25},
		{Status{CurrentStep: 9, TotalSteps: 4}, 1},
		{Status{CurrentStep: 3}, 0},
	}

	for _, tt := range tests {
		if got := tt.status.Progress(); got != tt.want {
			t.Errorf("%s Progress() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestState_Terminal(t *testing.T) {
	for state, want := range map[State]bool{Idle: false, InProgress: false, Completed: true, Failed: true} {
		if state.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, !want, want)
		}
	}
	if got := State(9).String(); got != "State(9)" {
		t.Errorf("String() of unknown state = %q", got)
	}
}
