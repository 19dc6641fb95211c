package catalog

// DefaultProducts is the catalog used when the store has nothing persisted.
func DefaultProducts() []Product {
	return []Product{
		{
			ID:          "1",
			Name:        "Eldritch Sovereign",
			Price:       149.90,
			Description: "O posto mais alto de Hybrasil. Comande as energias do servidor com kits exclusivos e permissões de lenda.",
			Category:    CategoryRank,
			Image:       "https://images.unsplash.com/photo-1614850523296-d8c1af93d400?auto=format&fit=crop&q=80&w=400",
		},
		{
			ID:          "2",
			Name:        "Essência de Mana (100k)",
			Price:       45.00,
			Description: "Poderosa reserva de mana concentrada para transações mágicas em Orbis.",
			Category:    CategoryCoins,
			Image:       "https://images.unsplash.com/photo-1550684848-fac1c5b4e853?auto=format&fit=crop&q=80&w=400",
		},
		{
			ID:          "3",
			Name:        "Capa das Sombras",
			Price:       29.90,
			Description: "Um cosmético raro que emana partículas de escuridão pura ao caminhar.",
			Category:    CategoryCosmetic,
			Image:       "https://images.unsplash.com/photo-1534447677768-be436bb09401?auto=format&fit=crop&q=80&w=400",
		},
		{
			ID:          "4",
			Name:        "Kit Pioneiro de Orbis",
			Price:       89.90,
			Description: "O pacote completo para novos exploradores: Rank Bronze + 50k Mana + Kit Inicial.",
			Category:    CategoryBundle,
			Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?auto=format&fit=crop&q=80&w=400",
		},
	}
}

// DefaultPosts is the blog seed used when the store has nothing persisted.
func DefaultPosts() []BlogPost {
	return []BlogPost{
		{
			ID:       "1",
			Title:    "O Despertar de Orbis",
			Excerpt:  "Antigas ruínas foram descobertas ao norte do mapa. O que elas escondem?",
			Content:  "Exploradores relatam luzes estranhas emanando das profundezas de Orbis. Anciões dizem que o portal para Hybrasil está mais forte do que nunca.",
			Date:     "15/10/2024",
			Author:   "Gab15",
			Category: "Evento",
			Image:    "https://images.unsplash.com/photo-1518709268805-4e9042af9f23?auto=format&fit=crop&q=80&w=800",
		},
	}
}
