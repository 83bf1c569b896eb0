package services

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/helpers"
	"SOCIAL_server/schemas"
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
)

// streamCloser cancels the request context once the response stream is closed
type streamCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (s streamCloser) Close() error {
	defer s.cancel()
	return s.ReadCloser.Close()
}

// SendMessage sends a text message to a connected user
func (s *Services) SendMessage(c *fiber.Ctx) error {

	req := new(schemas.SendMessageSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	message, err := s.Conversations.SendPrivateMessage(ctx, helpers.CurrentUsername(c), req.Receiver, req.Content)
	if err != nil {
		return errors.HandleServiceError(c, "send_message", err)
	}

	s.push(message)

	return helpers.DataResponse(c, fiber.StatusCreated, "", message)
}

// SendVoiceMessage uploads the "audio" form file as a message to the receiver
func (s *Services) SendVoiceMessage(c *fiber.Ctx) error {

	req := new(schemas.VoiceMessageSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadRequestError(c, "Form", "invalid")
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	header, err := c.FormFile("audio")
	if err != nil {
		return errors.HandleBadRequestError(c, "audio", "missing")
	}

	file, err := header.Open()
	if err != nil {
		return errors.HandleInternalError(c, "audio_open", err.Error())
	}
	defer file.Close()

	contentType := header.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	message, err := s.Conversations.SendVoiceMessage(ctx, helpers.CurrentUsername(c), req.Receiver, file, header.Size, contentType)
	if err != nil {
		return errors.HandleServiceError(c, "send_voice_message", err)
	}

	s.push(message)

	return helpers.DataResponse(c, fiber.StatusCreated, "", message)
}

// Audio streams the audio of a voice message
func (s *Services) Audio(c *fiber.Ctx) error {

	messageID := c.Params("messageID")
	if messageID == "" {
		return errors.HandleBadRequestError(c, "messageID", "missing")
	}

	ctx, cancel := helpers.RequestContext(c)

	object, _, err := s.Conversations.OpenAudio(ctx, helpers.CurrentUsername(c), messageID)
	if err != nil {
		cancel()
		return errors.HandleServiceError(c, "audio", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.SendStream(streamCloser{ReadCloser: object, cancel: cancel})
}

// PreviousMessages returns the conversation with :peer grouped by day
func (s *Services) PreviousMessages(c *fiber.Ctx) error {

	peer := c.Params("peer")
	if peer == "" {
		return errors.HandleBadRequestError(c, "peer", "missing")
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	days, err := s.Conversations.PreviousMessages(ctx, helpers.CurrentUsername(c), peer)
	if err != nil {
		return errors.HandleServiceError(c, "previous_messages", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "", days)
}
