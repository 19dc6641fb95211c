package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/hybrasil/storefront/internal/infrastructure/store"
)

type Category string

const (
	CategoryRank     Category = "rank"
	CategoryCoins    Category = "coins"
	CategoryCosmetic Category = "cosmetic"
	CategoryBundle   Category = "bundle"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRank, CategoryCoins, CategoryCosmetic, CategoryBundle:
		return true
	}
	return false
}

var (
	ErrProductNotFound = errors.New("product not found")
	ErrPostNotFound    = errors.New("blog post not found")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidCategory = errors.New("unknown product category")
	ErrInvalidTitle    = errors.New("title is required")
)

// Product is a purchasable item. Image accepts a remote URI or an inline
// encoded blob; it is stored opaquely either way.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Image       string   `json:"image"`
}

type BlogPost struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content"`
	Date     string `json:"date"`
	Author   string `json:"author"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

// Service owns the product and blog slices. Admin mutates, everything else
// reads. Every mutation persists the whole slice immediately; writes from
// peer contexts replace the in-memory copy via store subscription.
type Service struct {
	mu       sync.RWMutex
	st       store.Store
	products []Product
	posts    []BlogPost
}

func NewService(ctx context.Context, st store.Store) (*Service, error) {
	s := &Service{st: st}

	s.products = DefaultProducts()
	if _, err := st.Load(ctx, store.KeyProducts, &s.products); err != nil {
		return nil, err
	}
	s.posts = DefaultPosts()
	if _, err := st.Load(ctx, store.KeyBlog, &s.posts); err != nil {
		return nil, err
	}

	st.Subscribe(store.KeyProducts, func(_ string, raw []byte) {
		var products []Product
		if err := json.Unmarshal(raw, &products); err != nil {
			log.Printf("[Catalog] Ignoring bad external products value: %v", err)
			return
		}
		s.mu.Lock()
		s.products = products
		s.mu.Unlock()
	})
	st.Subscribe(store.KeyBlog, func(_ string, raw []byte) {
		var posts []BlogPost
		if err := json.Unmarshal(raw, &posts); err != nil {
			log.Printf("[Catalog] Ignoring bad external blog value: %v", err)
			return
		}
		s.mu.Lock()
		s.posts = posts
		s.mu.Unlock()
	})

	return s, nil
}

// Products returns a copy of the product list.
func (s *Service) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...)
}

func (s *Service) GetProduct(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func validateProduct(p Product) error {
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// CreateProduct assigns a fresh ID and appends the product.
func (s *Service) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	p.ID = uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
	if err := s.st.Save(ctx, store.KeyProducts, s.products); err != nil {
		return Product{}, err
	}
	return p, nil
}

// UpdateProduct replaces the product with the same ID.
func (s *Service) UpdateProduct(ctx context.Context, p Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
			return s.st.Save(ctx, store.KeyProducts, s.products)
		}
	}
	return ErrProductNotFound
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return s.st.Save(ctx, store.KeyProducts, s.products)
		}
	}
	return ErrProductNotFound
}

// Posts returns a copy of the blog post list.
func (s *Service) Posts() []BlogPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]BlogPost(nil), s.posts...)
}

func (s *Service) GetPost(id string) (BlogPost, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.ID == id {
			return p, true
		}
	}
	return BlogPost{}, false
}

func (s *Service) CreatePost(ctx context.Context, p BlogPost) (BlogPost, error) {
	if p.Title == "" {
		return BlogPost{}, ErrInvalidTitle
	}
	p.ID = uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, p)
	if err := s.st.Save(ctx, store.KeyBlog, s.posts); err != nil {
		return BlogPost{}, err
	}
	return p, nil
}

func (s *Service) UpdatePost(ctx context.Context, p BlogPost) error {
	if p.Title == "" {
		return ErrInvalidTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID == p.ID {
			s.posts[i] = p
			return s.st.Save(ctx, store.KeyBlog, s.posts)
		}
	}
	return ErrPostNotFound
}

func (s *Service) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return s.st.Save(ctx, store.KeyBlog, s.posts)
		}
	}
	return ErrPostNotFound
}
