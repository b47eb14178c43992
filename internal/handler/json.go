package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-campaigns/internal/domain/campaign"
	"github.com/xenking/kart-campaigns/internal/domain/pricing"
	"github.com/xenking/kart-campaigns/internal/domain/product"
)

const maxBodySize = 1 << 20

// requestError marks a malformed request.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return "invalid request: " + e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{err: err}
}

func readBody(w http.ResponseWriter, r *http.Request) (*jx.Decoder, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, badRequest(err)
	}
	return jx.DecodeBytes(data), nil
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// encodeDecimal writes d as a JSON number with its stored precision.
func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

// encodeMoney writes d rounded half away from zero to cents.
func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	default:
		return decimal.Zero, errors.Errorf("expected number, got %s", d.Next())
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse %q", raw)
	}
	return v, nil
}

func encodeCampaign(e *jx.Encoder, c campaign.Campaign) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(c.Description) })
		e.Field("discount_type", func(e *jx.Encoder) { e.Str(string(c.DiscountType)) })
		e.Field("discount_value", func(e *jx.Encoder) { encodeDecimal(e, c.DiscountValue) })
		e.Field("every", func(e *jx.Encoder) { encodeDecimal(e, c.Every) })
		e.Field("limit", func(e *jx.Encoder) { encodeDecimal(e, c.Limit) })
		e.Field("is_active", func(e *jx.Encoder) { e.Bool(c.IsActive) })
		e.Field("category_id", func(e *jx.Encoder) {
			if c.CategoryID == "" {
				e.Null()
				return
			}
			e.Str(c.CategoryID)
		})
		e.Field("product_categories", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, pc := range c.ProductCategories {
					encodeNamed(e, pc.ID, pc.Name)
				}
			})
		})
	})
}

func encodeCampaigns(e *jx.Encoder, cs []campaign.Campaign) {
	e.Arr(func(e *jx.Encoder) {
		for _, c := range cs {
			encodeCampaign(e, c)
		}
	})
}

func encodeNamed(e *jx.Encoder, id, name string) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(id) })
		e.Field("name", func(e *jx.Encoder) { e.Str(name) })
	})
}

func encodeCategory(e *jx.Encoder, c campaign.Category) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(c.Description) })
		e.Field("rank", func(e *jx.Encoder) {
			if c.Rank == nil {
				e.Null()
				return
			}
			e.Int(*c.Rank)
		})
	})
}

func encodeProductCategories(e *jx.Encoder, cats []product.Category) {
	e.Arr(func(e *jx.Encoder) {
		for _, c := range cats {
			encodeNamed(e, c.ID, c.Name)
		}
	})
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("category_id", func(e *jx.Encoder) { e.Str(p.CategoryID) })
		e.Field("price", func(e *jx.Encoder) { encodeMoney(e, p.Price) })
		e.Field("is_active", func(e *jx.Encoder) { e.Bool(p.IsActive) })
	})
}

func encodeProducts(e *jx.Encoder, products []product.Product) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			encodeProduct(e, p)
		}
	})
}

func encodeQuote(e *jx.Encoder, q *pricing.Quote) {
	res := q.Result
	e.Obj(func(e *jx.Encoder) {
		e.Field("user_id", func(e *jx.Encoder) { e.Str(q.UserID) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, q.Subtotal) })
		e.Field("points", func(e *jx.Encoder) { encodeMoney(e, q.Points) })
		e.Field("total_discount", func(e *jx.Encoder) { encodeMoney(e, res.TotalDiscount) })
		e.Field("final_total", func(e *jx.Encoder) { encodeMoney(e, res.FinalTotal) })
		e.Field("breakdown", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, b := range res.Breakdown {
					e.Obj(func(e *jx.Encoder) {
						e.Field("campaign_id", func(e *jx.Encoder) { e.Str(b.CampaignID) })
						e.Field("campaign_name", func(e *jx.Encoder) { e.Str(b.CampaignName) })
						e.Field("amount", func(e *jx.Encoder) { encodeMoney(e, b.Amount) })
					})
				}
			})
		})
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range q.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
						e.Field("product_id", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("product_name", func(e *jx.Encoder) { e.Str(it.ProductName) })
						e.Field("unit_price", func(e *jx.Encoder) { encodeMoney(e, it.UnitPrice) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("discounted_price", func(e *jx.Encoder) {
							encodeMoney(e, res.ItemPrices[it.ID])
						})
					})
				}
			})
		})
		e.Field("campaigns", func(e *jx.Encoder) { encodeCampaigns(e, q.Campaigns) })
	})
}

// decodeCampaign reads a create campaign request. Missing numeric fields are
// zero and is_active defaults to true.
func decodeCampaign(d *jx.Decoder) (campaign.Campaign, error) {
	c := campaign.Campaign{IsActive: true}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			c.Name, err = d.Str()
		case "description":
			c.Description, err = d.Str()
		case "discount_type":
			var s string
			s, err = d.Str()
			c.DiscountType = campaign.DiscountType(s)
		case "discount_value":
			c.DiscountValue, err = decodeDecimal(d)
		case "every":
			c.Every, err = decodeDecimal(d)
		case "limit":
			c.Limit, err = decodeDecimal(d)
		case "is_active":
			c.IsActive, err = d.Bool()
		case "category_id":
			c.CategoryID, err = decodeOptionalStr(d)
		case "product_category_ids":
			err = d.Arr(func(d *jx.Decoder) error {
				id, err := d.Str()
				if err != nil {
					return err
				}
				c.ProductCategories = append(c.ProductCategories, campaign.ProductCategory{ID: id})
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, string(key))
		}
		return nil
	})
	if err != nil {
		return campaign.Campaign{}, badRequest(err)
	}
	return c, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			p.Name, err = d.Str()
		case "category_id":
			p.CategoryID, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, string(key))
		}
		return nil
	})
	if err != nil {
		return product.Product{}, badRequest(err)
	}
	return p, nil
}

func decodeProductCategory(d *jx.Decoder) (product.Category, error) {
	var c product.Category
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "name" {
			return d.Skip()
		}
		var err error
		if c.Name, err = d.Str(); err != nil {
			return errors.Wrap(err, "name")
		}
		return nil
	})
	if err != nil {
		return product.Category{}, badRequest(err)
	}
	return c, nil
}

func decodeCategory(d *jx.Decoder) (campaign.Category, error) {
	var c campaign.Category
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			c.Name, err = d.Str()
		case "description":
			c.Description, err = d.Str()
		case "rank":
			if d.Next() == jx.Null {
				err = d.Null()
				break
			}
			var r int
			r, err = decodeRank(d)
			c.Rank = &r
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, string(key))
		}
		return nil
	})
	if err != nil {
		return campaign.Category{}, badRequest(err)
	}
	return c, nil
}

// decodeRank reads a rank, rejecting values the rank column cannot hold.
func decodeRank(d *jx.Decoder) (int, error) {
	r, err := d.Int32()
	if err != nil {
		return 0, err
	}
	return int(r), nil
}

func decodeRealign(d *jx.Decoder) ([]campaign.RankUpdate, error) {
	var updates []campaign.RankUpdate
	err := d.Arr(func(d *jx.Decoder) error {
		var u campaign.RankUpdate
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch string(key) {
			case "category_id":
				u.CategoryID, err = d.Str()
			case "rank":
				u.Rank, err = decodeRank(d)
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		updates = append(updates, u)
		return nil
	})
	if err != nil {
		return nil, badRequest(err)
	}
	return updates, nil
}

func decodeOptionalStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
