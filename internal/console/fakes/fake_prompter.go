package fakes

// FakePrompter replays scripted answers and records every prompt shown.
// An exhausted script returns the prompt's default (zero for Confirm),
// mirroring a user who just presses enter.
type FakePrompter struct {
	Strings  []string
	Ints     []int
	Confirms []bool

	Prompts []string
}

func (p *FakePrompter) AskString(prompt, defaultValue string) (string, error) {
	p.Prompts = append(p.Prompts, prompt)
	if len(p.Strings) == 0 {
		return defaultValue, nil
	}
	answer := p.Strings[0]
	p.Strings = p.Strings[1:]
	return answer, nil
}

func (p *FakePrompter) AskInt(prompt string, defaultValue int) (int, error) {
	p.Prompts = append(p.Prompts, prompt)
	if len(p.Ints) == 0 {
		return defaultValue, nil
	}
	answer := p.Ints[0]
	p.Ints = p.Ints[1:]
	return answer, nil
}

func (p *FakePrompter) Confirm(prompt string) (bool, error) {
	p.Prompts = append(p.Prompts, prompt)
	if len(p.Confirms) == 0 {
		return false, nil
	}
	answer := p.Confirms[0]
	p.Confirms = p.Confirms[1:]
	return answer, nil
}
