package guesspresenter

import (
	"encoding/base64"
	"strings"
)

// Presenter delivers formatted text and chart images to a chat room.
type Presenter struct {
	sendMessage func(room, message string) error
	sendImage   func(room, imageBase64 string) error
}

func NewPresenter(sendMessage func(room, message string) error, sendImage func(room, imageBase64 string) error) *Presenter {
	return &Presenter{
		sendMessage: sendMessage,
		sendImage:   sendImage,
	}
}

func (p *Presenter) Text(room, message string) error {
	if p == nil || p.sendMessage == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(room, message)
}

// Chart sends message and then the PNG, skipping whichever is empty.
func (p *Presenter) Chart(room, message string, png []byte) error {
	if p == nil {
		return nil
	}
	if err := p.Text(room, message); err != nil {
		return err
	}
	if len(png) > 0 && p.sendImage != nil {
		return p.sendImage(room, base64.StdEncoding.EncodeToString(png))
	}
	return nil
}
