package shopify

// extractScript runs in the page after load and returns a RawPage-shaped
// object. Geometry is read at the current viewport, so "above the fold"
// means top < window.innerHeight.
const extractScript = `
(function() {
	var fold = window.innerHeight;
	var result = {
		url: location.href,
		title: document.title || '',
		aboveFoldHeight: fold,
		ctaButtons: [],
		headline: '',
		loadTimeMs: 0,
		lcpMs: 0,
		priceText: '',
		compareAtText: '',
		priceVisible: false,
		priceAboveFold: false,
		reviewWidget: false,
		reviewText: '',
		shippingText: '',
		shippingAboveFold: false,
		trustBadges: [],
		paymentIcons: [],
		secureCheckout: location.protocol === 'https:',
		imageCount: 0,
		imagesWithAlt: 0
	};

	function visible(el) {
		if (!el) return false;
		var s = getComputedStyle(el);
		if (s.display === 'none' || s.visibility === 'hidden' || parseFloat(s.opacity) === 0) return false;
		var r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	}
	function aboveFold(el) {
		var r = el.getBoundingClientRect();
		return r.top < fold && r.bottom > 0;
	}
	function selectorFor(el) {
		if (el.id) return '#' + el.id;
		var cls = (el.className && typeof el.className === 'string') ? el.className.trim().split(/\s+/).slice(0, 2).join('.') : '';
		return el.tagName.toLowerCase() + (cls ? '.' + cls : '');
	}

	// Call-to-action candidates above the fold.
	var ctaWords = /(add to cart|add to bag|buy now|shop now|shop all|check ?out|order now|get started|subscribe)/i;
	var ctaNodes = document.querySelectorAll('button, a, input[type="submit"], [role="button"]');
	for (var i = 0; i < ctaNodes.length; i++) {
		var el = ctaNodes[i];
		if (!visible(el) || !aboveFold(el)) continue;
		var text = (el.innerText || el.value || el.getAttribute('aria-label') || '').trim();
		var isSubmit = el.matches('form[action*="/cart/add"] [type="submit"], [name="add"]');
		if (!ctaWords.test(text) && !isSubmit) continue;
		var r = el.getBoundingClientRect();
		var s = getComputedStyle(el);
		var bg = s.backgroundColor;
		var filled = bg && bg !== 'transparent' && bg !== 'rgba(0, 0, 0, 0)';
		result.ctaButtons.push({
			text: text.substring(0, 120),
			selector: selectorFor(el),
			position: { top: r.top, left: r.left },
			size: { width: r.width, height: r.height },
			prominent: filled && parseFloat(s.fontSize) >= 14
		});
	}

	var h1 = document.querySelector('h1');
	if (h1 && visible(h1)) result.headline = h1.innerText.trim();

	// Largest image in the first viewport is treated as the hero.
	var best = null, bestArea = 0;
	var imgs = document.images;
	for (var j = 0; j < imgs.length; j++) {
		var img = imgs[j];
		if (!visible(img) || !aboveFold(img)) continue;
		var ir = img.getBoundingClientRect();
		if (ir.width * ir.height > bestArea) { best = img; bestArea = ir.width * ir.height; }
	}
	if (best) {
		var src = best.currentSrc || best.src;
		var entry = performance.getEntriesByName(src)[0];
		result.heroImage = {
			src: src,
			alt: best.alt || '',
			width: best.naturalWidth,
			height: best.naturalHeight,
			bytes: entry ? (entry.encodedBodySize || entry.transferSize || 0) : 0
		};
	}

	var nav = performance.getEntriesByType('navigation')[0];
	if (nav && nav.loadEventEnd > 0) {
		result.loadTimeMs = nav.loadEventEnd - nav.startTime;
	} else if (performance.timing && performance.timing.loadEventEnd > 0) {
		result.loadTimeMs = performance.timing.loadEventEnd - performance.timing.navigationStart;
	}

	var priceEl = document.querySelector('.price-item--sale, .price-item--regular, .price__regular .price-item, [data-product-price], .product__price, .price');
	if (priceEl) {
		result.priceText = priceEl.innerText.trim();
		result.priceVisible = visible(priceEl);
		result.priceAboveFold = result.priceVisible && aboveFold(priceEl);
	}
	var compareEl = document.querySelector('.price-item--regular s, .price__compare, [data-compare-price], s.price-item');
	if (compareEl) result.compareAtText = compareEl.innerText.trim();

	var reviewEl = document.querySelector('.jdgm-widget, .jdgm-prev-badge, .yotpo, .stamped-badge, .loox-rating, .okeReviews, .spr-badge, [data-reviews], .product-reviews');
	if (reviewEl) {
		result.reviewWidget = true;
		result.reviewText = (reviewEl.innerText || reviewEl.getAttribute('aria-label') || '').trim().substring(0, 200);
		if (!/\d/.test(result.reviewText)) {
			var avg = reviewEl.getAttribute('data-average-rating') || reviewEl.getAttribute('data-rating') || '';
			var cnt = reviewEl.getAttribute('data-number-of-reviews') || reviewEl.getAttribute('data-count') || '';
			if (avg) result.reviewText = avg + (cnt ? ' (' + cnt + ' reviews)' : '');
		}
	}

	var walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
	var shipRe = /(free (shipping|delivery)|shipping|delivery|ships)/i;
	while (walker.nextNode()) {
		var t = walker.currentNode.textContent.trim();
		if (t.length < 6 || t.length > 200 || !shipRe.test(t)) continue;
		var parent = walker.currentNode.parentElement;
		if (!visible(parent)) continue;
		if (!result.shippingText || (aboveFold(parent) && !result.shippingAboveFold)) {
			result.shippingText = t;
			result.shippingAboveFold = aboveFold(parent);
		}
		if (result.shippingAboveFold) break;
	}

	var badgeRe = /(money[- ]back|guarantee|secure (checkout|payment)|ssl|free returns|easy returns|warranty|trusted)/i;
	var seen = {};
	var badgeNodes = document.querySelectorAll('img[alt], [class*="trust"], [class*="badge"], [class*="guarantee"]');
	for (var k = 0; k < badgeNodes.length; k++) {
		var label = (badgeNodes[k].alt || badgeNodes[k].innerText || '').trim();
		var m = label.match(badgeRe);
		if (m && !seen[m[0].toLowerCase()]) {
			seen[m[0].toLowerCase()] = true;
			result.trustBadges.push(m[0]);
		}
	}

	var payRe = /(visa|mastercard|american express|amex|paypal|apple pay|google pay|shop pay|klarna|afterpay|discover|maestro)/i;
	var payNodes = document.querySelectorAll('.list-payment li, [class*="payment"] svg, [class*="payment"] img, svg[aria-labelledby*="pi-"]');
	var paySeen = {};
	for (var p = 0; p < payNodes.length; p++) {
		var node = payNodes[p];
		var name = node.getAttribute('aria-label') || node.getAttribute('alt') || '';
		var title = node.querySelector && node.querySelector('title');
		if (!name && title) name = title.textContent;
		var pm = name.match(payRe);
		if (pm && !paySeen[pm[0].toLowerCase()]) {
			paySeen[pm[0].toLowerCase()] = true;
			result.paymentIcons.push(pm[0]);
		}
	}

	for (var a = 0; a < imgs.length; a++) {
		if (imgs[a].naturalWidth <= 1 && imgs[a].naturalHeight <= 1) continue;
		result.imageCount++;
		if ((imgs[a].getAttribute('alt') || '').trim() !== '') result.imagesWithAlt++;
	}

	return result;
})()
`

// lcpScript resolves with the latest buffered LCP entry, or 0 when the
// browser reports none within a short window.
const lcpScript = `
new Promise(function(resolve) {
	var lcp = 0;
	try {
		new PerformanceObserver(function(list) {
			var entries = list.getEntries();
			if (entries.length) lcp = entries[entries.length - 1].startTime;
		}).observe({ type: 'largest-contentful-paint', buffered: true });
	} catch (e) {
		resolve(0);
		return;
	}
	setTimeout(function() { resolve(lcp); }, 500);
})
`

// stickyCartScript scrolls past the fold and checks whether an add-to-cart
// control stays pinned to the viewport.
const stickyCartScript = `
new Promise(function(resolve) {
	window.scrollTo(0, Math.max(document.body.scrollHeight / 2, window.innerHeight * 2));
	setTimeout(function() {
		var res = { present: false, visibleOnMobile: false };
		var nodes = document.querySelectorAll('button, a, [role="button"], [class*="sticky"]');
		for (var i = 0; i < nodes.length; i++) {
			var el = nodes[i];
			var text = (el.innerText || el.getAttribute('aria-label') || '').toLowerCase();
			if (!/(add to cart|add to bag|buy now)/.test(text)) continue;
			var pos = el, fixed = false;
			while (pos && pos !== document.body) {
				var p = getComputedStyle(pos).position;
				if (p === 'fixed' || p === 'sticky') { fixed = true; break; }
				pos = pos.parentElement;
			}
			if (!fixed) continue;
			res.present = true;
			var r = el.getBoundingClientRect();
			var s = getComputedStyle(el);
			if (r.width > 0 && r.height > 0 && r.top >= 0 && r.bottom <= window.innerHeight && s.visibility !== 'hidden') {
				res.visibleOnMobile = true;
				break;
			}
		}
		resolve(res);
	}, 400);
})
`
