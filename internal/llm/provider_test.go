package llm

import "testing"

func TestSplitReasoning(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantAnswer    string
		wantReasoning string
	}{
		{
			name:       "no reasoning block",
			input:      "The answer is 42.",
			wantAnswer: "The answer is 42.",
		},
		{
			name:          "leading block",
			input:         "<think>Let me count.</think>The answer is 42.",
			wantAnswer:    "The answer is 42.",
			wantReasoning: "Let me count.",
		},
		{
			name:          "multiline block",
			input:         "<think>\nstep one\nstep two\n</think>\nDone.",
			wantAnswer:    "Done.",
			wantReasoning: "step one\nstep two",
		},
		{
			name:       "unterminated block",
			input:      "<think>still going and the answer is 42",
			wantAnswer: "still going and the answer is 42",
		},
		{
			name:       "empty input",
			input:      "",
			wantAnswer: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, reasoning := splitReasoning(tt.input)
			if answer != tt.wantAnswer {
				t.Errorf("answer = %q, want %q", answer, tt.wantAnswer)
			}
			if reasoning != tt.wantReasoning {
				t.Errorf("reasoning = %q, want %q", reasoning, tt.wantReasoning)
			}
		})
	}
}
