package rustic

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"

	// Registered decoders for avatar formats Discord serves.
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// cmdGrayscale fetches the invoker's avatar (or the mentioned member's),
// converts it to grayscale, and uploads the result as a PNG attachment.
func (b *Bot) cmdGrayscale(ctx context.Context, inv *Invocation) error {
	target := messageAuthor(inv.Message)
	if inv.Rest != "" {
		if len(inv.Message.Mentions) == 0 {
			return inv.Reply("Mention a member to grayscale their avatar.")
		}
		target = inv.Message.Mentions[0]
	}
	if target == nil {
		return inv.Reply(retryNotice)
	}

	resp, err := b.httpGet(ctx, target.AvatarURL("512"), nil)
	if err != nil {
		b.logger.ErrorContext(ctx, "error fetching avatar", tint.Err(err))
		return inv.Reply(retryNotice)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		b.logger.WarnContext(
			ctx,
			"avatar fetch returned non-200",
			"status_code", resp.StatusCode,
		)
		return inv.Reply(retryNotice)
	}

	src, _, err := image.Decode(resp.Body)
	if err != nil {
		b.logger.ErrorContext(ctx, "error decoding avatar", tint.Err(err))
		return inv.Reply(retryNotice)
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, grayscaleImage(src)); err != nil {
		b.logger.ErrorContext(ctx, "error encoding grayscale png", tint.Err(err))
		return inv.Reply(retryNotice)
	}

	return inv.ReplyComplex(
		&discordgo.MessageSend{
			Files: []*discordgo.File{
				{
					Name:        "grayscale.png",
					ContentType: "image/png",
					Reader:      &buf,
				},
			},
		},
	)
}

// grayscaleImage converts an image to grayscale, preserving alpha.
func grayscaleImage(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := src.At(x, y)
			gray := color.GrayModel.Convert(c).(color.Gray)
			_, _, _, a := c.RGBA()
			dst.SetNRGBA(
				x, y, color.NRGBA{R: gray.Y, G: gray.Y, B: gray.Y, A: uint8(a >> 8)},
			)
		}
	}
	return dst
}
