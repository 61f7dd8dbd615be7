package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
)

var (
	errNoRequest = errors.New("未检测到输入，请重新运行并提供日程需求。")
	errCancelled = errors.New("已取消。")
)

const requestPrompt = "请输入今天的日程需求，支持多行输入，直接输入空行即可结束："

// readRequest asks for the planning request: a huh text area on a terminal,
// otherwise lines from stdin.
func (a *App) readRequest(ctx context.Context, out io.Writer) (string, error) {
	var (
		text string
		err  error
	)
	if a.interactive() {
		text, err = promptRequestForm(ctx)
	} else {
		fmt.Fprintln(out, requestPrompt)
		text, err = readRequestLines(a.stdin())
	}
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errNoRequest
	}
	return text, nil
}

func promptRequestForm(ctx context.Context) (string, error) {
	var text string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("本周日程需求").
				Description("描述要新增或调整的安排，可多行输入").
				CharLimit(4000).
				Value(&text),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", errCancelled
		}
		return "", fmt.Errorf("reading request: %w", err)
	}
	return text, nil
}

// readRequestLines reads lines until the first blank line or EOF. A final
// line without a newline still counts.
func readRequestLines(in io.Reader) (string, error) {
	if in == nil {
		return "", nil
	}
	var lines []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading request: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}
