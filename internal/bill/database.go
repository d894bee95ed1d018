package bill

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	billBucketName         = "bills"
	shoppingListBucketName = "shopping_lists"
)

// ErrNotFound marks lookups for bills that do not exist, or that belong
// to someone else. Handlers turn it into a 404.
var ErrNotFound = errors.New("bill not found")

// History responses are capped so one hoarder user cannot flood the API.
const (
	maxListedBills         = 100
	maxListedShoppingLists = 10
)

// DB defines the interface for database operations
type DB interface {
	// SaveBill saves a bill to the database
	SaveBill(bill *Bill) error

	// GetBill retrieves a bill by ID
	GetBill(id string) (*Bill, error)

	// ListBills returns a user's bills, newest first
	ListBills(userID string) ([]*Bill, error)

	// DeleteBill removes a bill from the database
	DeleteBill(id string) error

	// SaveShoppingList saves a generated shopping list
	SaveShoppingList(list *ShoppingList) error

	// ListShoppingLists returns a user's shopping lists, newest first
	ListShoppingLists(userID string) ([]*ShoppingList, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(billBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(shoppingListBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveBill saves a bill to the database
func (b *BoltDB) SaveBill(bill *Bill) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billBucketName))
		data, err := json.Marshal(bill)
		if err != nil {
			return fmt.Errorf("marshaling bill: %w", err)
		}
		return bucket.Put([]byte(bill.ID), data)
	})
}

// GetBill retrieves a bill by ID
func (b *BoltDB) GetBill(id string) (*Bill, error) {
	var bill *Bill
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &bill)
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// ListBills returns the user's bills sorted by upload date, newest first
func (b *BoltDB) ListBills(userID string) ([]*Bill, error) {
	bills := make([]*Bill, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var bill Bill
			if err := json.Unmarshal(v, &bill); err != nil {
				return fmt.Errorf("unmarshaling bill: %w", err)
			}
			if bill.UserID == userID {
				bills = append(bills, &bill)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(bills, func(i, j int) bool {
		return bills[i].UploadDate.After(bills[j].UploadDate)
	})
	if len(bills) > maxListedBills {
		bills = bills[:maxListedBills]
	}
	return bills, nil
}

// DeleteBill removes a bill from the database
func (b *BoltDB) DeleteBill(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billBucketName))
		return bucket.Delete([]byte(id))
	})
}

// SaveShoppingList saves a generated shopping list
func (b *BoltDB) SaveShoppingList(list *ShoppingList) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(shoppingListBucketName))
		data, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("marshaling shopping list: %w", err)
		}
		return bucket.Put([]byte(list.ID), data)
	})
}

// ListShoppingLists returns the user's shopping lists, newest first
func (b *BoltDB) ListShoppingLists(userID string) ([]*ShoppingList, error) {
	lists := make([]*ShoppingList, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(shoppingListBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var list ShoppingList
			if err := json.Unmarshal(v, &list); err != nil {
				return fmt.Errorf("unmarshaling shopping list: %w", err)
			}
			if list.UserID == userID {
				lists = append(lists, &list)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(lists, func(i, j int) bool {
		return lists[i].CreatedAt.After(lists[j].CreatedAt)
	})
	if len(lists) > maxListedShoppingLists {
		lists = lists[:maxListedShoppingLists]
	}
	return lists, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
