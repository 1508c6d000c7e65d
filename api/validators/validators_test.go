package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type addItemBody struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"","quantity":0}`))
	var body addItemBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details := typed.Details().(map[string]string)
	assert.Equal(t, "is required", details["product_id"])
	assert.Equal(t, "must be at least 1", details["quantity"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"1","quantity":1,"price":"0"}`))
	var body addItemBody
	assert.True(t, pkgerrors.HasCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestRequiredQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?q=%20%20shoes%20", nil)
	q, err := RequiredQuery(req, "q", 3)
	require.NoError(t, err)
	assert.Equal(t, "sho", q)

	_, err = RequiredQuery(httptest.NewRequest(http.MethodGet, "/", nil), "q", 10)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
