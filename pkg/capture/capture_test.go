package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrivalkit/formpilot/pkg/driver"
	"github.com/arrivalkit/formpilot/pkg/driver/drivertest"
)

const fullResultPage = `
<html><body>
  <h1>Registration complete</h1>
  <p>Your confirmation number: <strong>TH-9001123</strong></p>
  <img id="qr-code" src="data:image/png;base64,iVBORw0KGgo=" alt="QR code">
  <a href="/download/arrival-card.pdf">Download arrival card</a>
</body></html>`

func TestFromHTML_FullArtifact(t *testing.T) {
	artifact, err := FromHTML(fullResultPage, Options{})
	require.NoError(t, err)

	assert.Equal(t, "TH-9001123", artifact.ConfirmationNumber)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", artifact.CodePayload)
	assert.Equal(t, "/download/arrival-card.pdf", artifact.DocumentRef)
	assert.False(t, artifact.CapturedAt.IsZero())
}

func TestFromHTML_LabeledNumberBeatsStrayMatches(t *testing.T) {
	page := `
	<html><body>
	  <p>Form version FV-20240101</p>
	  <p>Reference number: AB-7755001</p>
	</body></html>`

	artifact, err := FromHTML(page, Options{})
	require.NoError(t, err)
	assert.Equal(t, "AB-7755001", artifact.ConfirmationNumber)
}

func TestFromHTML_PartialArtifactIsUsable(t *testing.T) {
	page := `<html><body><p>Confirmation number: XK-123456</p></body></html>`

	artifact, err := FromHTML(page, Options{})
	require.NoError(t, err)
	assert.Equal(t, "XK-123456", artifact.ConfirmationNumber)
	assert.Empty(t, artifact.CodePayload)
	assert.Empty(t, artifact.DocumentRef)
	assert.False(t, artifact.Empty())
}

func TestFromHTML_CustomOptions(t *testing.T) {
	page := `<html><body><p>Hồ sơ số: VN20240042</p></body></html>`

	artifact, err := FromHTML(page, Options{
		ConfirmationLabels:  []string{"hồ sơ số"},
		ConfirmationPattern: `VN[0-9]{8}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "VN20240042", artifact.ConfirmationNumber)
}

func TestFromHTML_CodeImageByHint(t *testing.T) {
	page := `<html><body><img class="barcode-img" src="/codes/123.png"></body></html>`

	artifact, err := FromHTML(page, Options{})
	require.NoError(t, err)
	assert.Equal(t, "/codes/123.png", artifact.CodePayload)
}

func TestFromHTML_IgnoresScriptText(t *testing.T) {
	page := `<html><body><script>var ref = "ZZ-9999999";</script><p>Thank you</p></body></html>`

	artifact, err := FromHTML(page, Options{})
	require.NoError(t, err)
	assert.Empty(t, artifact.ConfirmationNumber)
	assert.True(t, artifact.Empty())
}

func TestExtract(t *testing.T) {
	fake := drivertest.New()
	fake.SetHTML(fullResultPage)

	artifact, err := Extract(context.Background(), fake, Options{})
	require.NoError(t, err)
	assert.Equal(t, "TH-9001123", artifact.ConfirmationNumber)
}

func TestExtract_ResolvesDocumentRefAgainstPageURL(t *testing.T) {
	fake := drivertest.New()
	fake.SetSnapshot(&driver.PageSnapshot{URL: "https://arrival.example.gov/result/view"})
	fake.SetHTML(fullResultPage)

	artifact, err := Extract(context.Background(), fake, Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://arrival.example.gov/download/arrival-card.pdf", artifact.DocumentRef)
}

func TestExtract_NoArtifact(t *testing.T) {
	fake := drivertest.New()
	fake.SetHTML(`<html><body><p>Please try again later</p></body></html>`)

	artifact, err := Extract(context.Background(), fake, Options{})
	assert.ErrorIs(t, err, ErrNoArtifact)
	require.NotNil(t, artifact)
	assert.True(t, artifact.Empty())
}

func TestExtract_DriverError(t *testing.T) {
	fake := drivertest.New()
	fake.FailOn("content", errors.New("surface gone"))

	_, err := Extract(context.Background(), fake, Options{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoArtifact)
}
