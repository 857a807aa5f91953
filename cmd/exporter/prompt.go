package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const channelPrompt = "Enter YouTube Channel Name: "

// readChannelName asks for a channel name on w and reads one line from r.
func readChannelName(r io.Reader, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, channelPrompt); err != nil {
		return "", err
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	name := strings.TrimSpace(line)
	if name == "" {
		return "", errors.New("channel name is empty")
	}
	return name, nil
}
