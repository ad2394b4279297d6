package marketsapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rain-one/sdk-go/core/types"
	"github.com/rain-one/sdk-go/core/util"
)

// The catalog wraps its responses inconsistently. Everything in this file
// reduces them to rawMarket values; nothing outside it sees an envelope.

type rawOption struct {
	ChoiceIndex *int    `json:"choiceIndex"`
	OptionName  *string `json:"optionName"`
}

type rawMarket struct {
	ID              *string     `json:"id"`
	MongoID         *string     `json:"_id"`
	Title           *string     `json:"title"`
	Question        *string     `json:"question"`
	Status          *string     `json:"status"`
	ContractAddress *string     `json:"contractAddress"`
	Options         []rawOption `json:"options"`
	Choices         []rawOption `json:"choices"`
}

func (r rawMarket) id() string {
	if r.ID != nil && *r.ID != "" {
		return *r.ID
	}
	if r.MongoID != nil {
		return *r.MongoID
	}
	return ""
}

// toMarket applies the field fallbacks. fallbackID is used when the record
// carries no id of its own.
func (r rawMarket) toMarket(fallbackID string) types.Market {
	m := types.Market{
		ID:     r.id(),
		Status: types.MarketStatusNew,
	}
	if m.ID == "" {
		m.ID = fallbackID
	}
	switch {
	case r.Title != nil:
		m.Title = *r.Title
	case r.Question != nil:
		m.Title = *r.Question
	}
	if r.Status != nil && *r.Status != "" {
		m.Status = types.MarketStatus(*r.Status)
	}
	if r.ContractAddress != nil {
		if addr, err := util.NewEthereumAddressFromString(*r.ContractAddress); err == nil {
			m.ContractAddress = addr
		}
	}

	opts := r.Options
	if opts == nil {
		opts = r.Choices
	}
	m.Options = make([]types.MarketOption, len(opts))
	for i, o := range opts {
		m.Options[i] = types.MarketOption{
			ChoiceIndex: i,
			OptionName:  fmt.Sprintf("Option %d", i),
		}
		if o.ChoiceIndex != nil {
			m.Options[i].ChoiceIndex = *o.ChoiceIndex
		}
		if o.OptionName != nil {
			m.Options[i].OptionName = *o.OptionName
		}
	}
	return m
}

// decodeMarketPage accepts a plain array, {data:[...]}, {data:{pools:[...]}}
// or {pools:[...]}. Any other shape is an empty page.
func decodeMarketPage(body []byte) ([]rawMarket, error) {
	list := findMarketList(body)
	if list == nil {
		return []rawMarket{}, nil
	}
	var markets []rawMarket
	if err := json.Unmarshal(list, &markets); err != nil {
		return nil, types.DataShapeErrorf("malformed market list: %v", err)
	}
	return markets, nil
}

func findMarketList(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if isJSONArray(body) {
		return body
	}
	var env struct {
		Data  json.RawMessage `json:"data"`
		Pools json.RawMessage `json:"pools"`
	}
	if !isJSONObject(body) || json.Unmarshal(body, &env) != nil {
		return nil
	}
	if isJSONArray(env.Data) {
		return env.Data
	}
	if isJSONObject(env.Data) {
		var inner struct {
			Pools json.RawMessage `json:"pools"`
		}
		if json.Unmarshal(env.Data, &inner) == nil && isJSONArray(inner.Pools) {
			return inner.Pools
		}
	}
	if isJSONArray(env.Pools) {
		return env.Pools
	}
	return nil
}

// decodeMarketRecord accepts {data:{...}} or a bare object.
func decodeMarketRecord(body []byte) (*rawMarket, error) {
	body = bytes.TrimSpace(body)
	if !isJSONObject(body) {
		return nil, types.DataShapeErrorf("market response is not an object")
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, types.DataShapeErrorf("malformed market response: %v", err)
	}
	record := body
	if isJSONObject(env.Data) {
		record = env.Data
	}
	var m rawMarket
	if err := json.Unmarshal(record, &m); err != nil {
		return nil, types.DataShapeErrorf("malformed market record: %v", err)
	}
	return &m, nil
}

func isJSONArray(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '['
}

func isJSONObject(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}
