package importer

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-campaigns/internal/domain/campaign"
)

// decodeLine parses one JSON-lines campaign record. is_active defaults to
// true.
func decodeLine(line []byte) (campaign.Campaign, error) {
	c := campaign.Campaign{IsActive: true}
	err := jx.DecodeBytes(line).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			c.ID, err = d.Str()
		case "name":
			c.Name, err = d.Str()
		case "description":
			c.Description, err = d.Str()
		case "discount_type":
			var s string
			s, err = d.Str()
			c.DiscountType = campaign.DiscountType(s)
		case "discount_value":
			c.DiscountValue, err = decodeNumber(d)
		case "every":
			c.Every, err = decodeNumber(d)
		case "limit":
			c.Limit, err = decodeNumber(d)
		case "is_active":
			c.IsActive, err = d.Bool()
		case "category_id":
			if d.Next() == jx.Null {
				err = d.Null()
				break
			}
			c.CategoryID, err = d.Str()
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
	return c, err
}

func decodeNumber(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}
